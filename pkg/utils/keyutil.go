package utils

import (
	"path"
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of filename for ext (given without the dot).
func ReplaceExt(filename, ext string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + "." + ext
}

// FlatKey derives the object key from the artifact's file name only, so
// same-named files in different directories map to the same key.
func FlatKey(prefix, outputPath string) string {
	return joinKey(prefix, filepath.Base(outputPath))
}

// RelativeKey derives the object key from the artifact's path relative to
// root, using forward slashes regardless of platform.
func RelativeKey(prefix, root, outputPath string) (string, error) {
	rel, err := filepath.Rel(root, outputPath)
	if err != nil {
		return "", err
	}
	return joinKey(prefix, filepath.ToSlash(rel)), nil
}

func joinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// HasExtension reports whether name ends in one of exts. Matching is case
// sensitive and exts are given without the leading dot.
func HasExtension(name string, exts []string) (string, bool) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", false
	}
	for _, candidate := range exts {
		if ext == candidate {
			return ext, true
		}
	}
	return "", false
}
