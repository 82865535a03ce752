package objectcache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes a file found in a cache directory.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
	Partial bool
}

// ScanDir lists cache files without loading a Cache, for offline tooling.
func ScanDir(dir string) ([]FileInfo, int64, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	var files []FileInfo
	var total int64
	for _, de := range ents {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    de.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Partial: strings.HasSuffix(de.Name(), partialSuffix),
		})
		total += info.Size()
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.Before(files[j].ModTime) })
	return files, total, nil
}

// PurgeDir removes every regular file in dir. It must not run while a server
// is using the same directory.
func PurgeDir(dir string) (int, error) {
	files, _, err := ScanDir(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if err := os.Remove(filepath.Join(dir, f.Name)); err == nil {
			removed++
		}
	}
	return removed, nil
}
