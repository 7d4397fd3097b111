package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/wz-splitter/constants"
)

// AllowedExt reports whether ext (with or without the dot) is a source format.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func isSource(path string) bool {
	return !IsHidden(path) && AllowedExt(filepath.Ext(path))
}
