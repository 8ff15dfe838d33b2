package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileReadBytes is the largest source file the scanner will read (10 MB).
// Larger files are treated as unreadable and skipped.
const MaxFileReadBytes int64 = 10 * 1024 * 1024

// validatePath checks that a file path is absolute and returns it cleaned.
func validatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path must not be empty")
	}

	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path must be absolute, got %q", path)
	}

	cleaned := filepath.Clean(path)
	for _, part := range strings.Split(cleaned, string(filepath.Separator)) {
		if part == ".." {
			return "", fmt.Errorf("path traversal (..) not allowed in %q", path)
		}
	}

	return cleaned, nil
}

// openRegular opens a file for scanning:
//   - follows symlinks (plugins commonly symlink shared code)
//   - regular-file-only after resolution (no devices, pipes, sockets)
//   - size-capped at MaxFileReadBytes
//
// Uses open-then-fstat to avoid TOCTOU races between stat and open.
// The caller must close the returned file.
func openRegular(path string) (*os.File, error) {
	cleaned, err := validatePath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot open file %q: %w", cleaned, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot stat file %q: %w", cleaned, err)
	}

	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("refusing to read non-regular file %q (mode: %s)", cleaned, info.Mode().Type())
	}

	if info.Size() > MaxFileReadBytes {
		f.Close()
		return nil, fmt.Errorf("file %q too large: %d bytes (max: %d)", cleaned, info.Size(), MaxFileReadBytes)
	}

	return f, nil
}

// readFileLimited reads a whole regular file with the openRegular safety checks.
func readFileLimited(path string) ([]byte, error) {
	f, err := openRegular(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	limited := io.LimitReader(f, MaxFileReadBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %w", path, err)
	}

	if int64(len(data)) > MaxFileReadBytes {
		return nil, fmt.Errorf("file %q exceeded size limit during read", path)
	}

	return data, nil
}

// hasVendorSegment reports whether any path segment, split on either forward
// or back slashes, is exactly "vendor".
func hasVendorSegment(path string) bool {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	for _, s := range segments {
		if s == "vendor" {
			return true
		}
	}
	return false
}
