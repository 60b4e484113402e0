// Package fileutil provides file and path utility functions.
package fileutil

import (
	"os"
	"path/filepath"
	"strings"
)

// HasExtension reports whether name ends with ext, compared
// case-insensitively. ext must include the dot.
func HasExtension(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

// Stem returns the file name without its directory or extension.
//
// Examples:
//   - "icons/logo.svg" -> "logo"
//   - "banner.SVG"     -> "banner"
//   - "archive.tar.gz" -> "archive.tar"
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "default" -> false (name)
//   - "./svg2png.yaml" -> true (relative path)
//   - "/etc/svg2png.yaml" -> true (absolute)
//   - "C:\tools\svg2png.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
