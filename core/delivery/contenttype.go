package delivery

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/dhowden/tag"
)

var fileTypeMIME = map[tag.FileType]string{
	tag.MP3:  "audio/mpeg",
	tag.M4A:  "audio/mp4",
	tag.M4B:  "audio/mp4",
	tag.M4P:  "audio/mp4",
	tag.ALAC: "audio/mp4",
	tag.FLAC: "audio/flac",
	tag.OGG:  "audio/ogg",
	tag.DSF:  "audio/dsf",
}

// detectContentType sniffs the container from tag headers, then the file
// extension, then the leading bytes. It leaves f positioned at the start.
func detectContentType(f io.ReadSeeker, path string) string {
	defer f.Seek(0, io.SeekStart)

	if _, ft, err := tag.Identify(f); err == nil {
		if ct, ok := fileTypeMIME[ft]; ok {
			return ct
		}
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "application/octet-stream"
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	return http.DetectContentType(head[:n])
}
