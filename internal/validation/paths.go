package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator checks the local paths reel writes to: the database, the
// favorites index, the log file and the config file.
type PathValidator struct {
	MaxPathLength int
}

func NewPathValidator() *PathValidator {
	return &PathValidator{MaxPathLength: 4096}
}

// Clean expands a leading ~/, rejects control characters and ".."
// segments, and returns an absolute path.
func (v *PathValidator) Clean(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	if strings.IndexFunc(path, func(r rune) bool { return r < 32 && r != '\t' }) >= 0 {
		return "", fmt.Errorf("path contains control characters")
	}

	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return "", fmt.Errorf("path contains directory traversal")
		}
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return filepath.Clean(abs), nil
}

// ValidateFile cleans path and makes sure it does not name a directory.
func (v *PathValidator) ValidateFile(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(clean); statErr == nil && info.IsDir() {
		return "", fmt.Errorf("%s is a directory", clean)
	}
	return clean, nil
}

// ValidateDirectory cleans path and makes sure it is not a regular file.
// Bleve indexes are directories.
func (v *PathValidator) ValidateDirectory(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(clean); statErr == nil && !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", clean)
	}
	return clean, nil
}
