package objectcache

import (
	"encoding/hex"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const partialSuffix = ".partial"

// Path returns the cache file for objectKey. The name is a hash of the key so
// arbitrary keys map to flat, safe file names; the extension is kept for
// content type detection.
func Path(dir, objectKey string) string {
	sum := blake2b.Sum256([]byte(objectKey))
	return filepath.Join(dir, hex.EncodeToString(sum[:16])+safeExt(objectKey))
}

// PartialPath is where a fetch writes before the atomic rename to Path.
func PartialPath(dir, objectKey string) string {
	return Path(dir, objectKey) + partialSuffix
}

func safeExt(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
