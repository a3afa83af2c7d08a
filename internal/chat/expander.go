package chat

import (
	"errors"
	"fmt"
	"os"
)

// FileExpander reads a referenced file for @path expansion. Implementations
// fail with one of the sentinel errors below.
type FileExpander interface {
	Read(path string) (string, error)
}

var (
	// ErrFileNotFound means the referenced path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrPermissionDenied means the referenced path is not readable.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrFileTooLarge means the file exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file too large")
)

// DiskExpander reads files from the local filesystem with a size cap so a
// stray @reference to a huge file cannot blow up the prompt.
type DiskExpander struct {
	// MaxBytes caps the readable file size. Zero means no cap.
	MaxBytes int64
}

// NewDiskExpander creates an expander with the given size cap in bytes.
func NewDiskExpander(maxBytes int64) *DiskExpander {
	return &DiskExpander{MaxBytes: maxBytes}
}

// Read returns the file's text content.
func (e *DiskExpander) Read(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	if e.MaxBytes > 0 && info.Size() > e.MaxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes (cap %d)", ErrFileTooLarge, path, info.Size(), e.MaxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return "", fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return "", err
	}
	return string(data), nil
}
