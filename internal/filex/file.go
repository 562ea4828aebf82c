// Package filex holds filesystem helpers for the upload staging area.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnsureDir creates dir (relative paths resolve against the working
// directory) and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// StagingPath returns a fresh file path under dir for an upload owned by
// userID. Only the extension of originalName is kept.
func StagingPath(dir, userID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", userID, uuid.NewString(), ext))
}

// RemoveWithin deletes path when it names a file directly inside dir and
// reports whether it did. URLs and paths elsewhere are left alone.
func RemoveWithin(dir, path string) bool {
	if path == "" || filepath.Dir(filepath.Clean(path)) != filepath.Clean(dir) {
		return false
	}
	return os.Remove(path) == nil
}
