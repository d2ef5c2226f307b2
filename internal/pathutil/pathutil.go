// Package pathutil provides path resolution utilities for file operations.
// Resolution normalizes a path with filepath.Clean(), converts it to an
// absolute path, and follows symbolic links so that callers always operate
// on the real filesystem location.
package pathutil

import (
	"fmt"
	"path/filepath"
)

// Resolve returns the absolute, symlink-resolved form of path.
// The path does not need to exist: if symlink resolution fails (typically
// because the path or one of its parents is not yet on disk), the cleaned
// absolute path is returned instead.
func Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s to absolute path: %w", path, err)
	}

	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return absPath, nil
	}

	return resolvedPath, nil
}
