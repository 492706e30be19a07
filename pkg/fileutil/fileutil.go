// Package fileutil provides file system utility functions.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve returns the actual path of a file, matching the final path
// component case-insensitively. Song definitions written on Windows-era
// hosts routinely reference audio files with inconsistent casing.
func Resolve(path string) (string, error) {
	// Fast path: exact match.
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	baseLower := strings.ToLower(base)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == baseLower {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s", path)
}

// ReadFile reads a file after resolving its path case-insensitively.
func ReadFile(path string) ([]byte, error) {
	actual, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actual)
}
