package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CanHandle reports whether path looks like a family text file.
func CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ""
}

// ImportFile reads a family text file and imports its content.
func (e *Engine) ImportFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !CanHandle(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFile, path)
	}
	if info.Size() > e.opts.MaxFileSize {
		return nil, fmt.Errorf("%w (%d bytes, max %d)", ErrFileTooLarge, info.Size(), e.opts.MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return e.Import(string(data))
}
