package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReceiptArchive persists generated receipt documents on disk.
type ReceiptArchive struct {
	baseDir string
}

// NewReceiptArchive ensures the archive directory exists and returns a handle.
func NewReceiptArchive(baseDir string) (*ReceiptArchive, error) {
	if baseDir == "" {
		baseDir = "./receipts"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts directory: %w", err)
	}
	return &ReceiptArchive{baseDir: baseDir}, nil
}

// Save writes the document under the base dir and returns its relative path.
func (a *ReceiptArchive) Save(filename string, data []byte) (string, error) {
	path := a.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare receipt directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write receipt file: %w", err)
	}
	return filename, nil
}

// Open returns a read-only handle for an archived receipt.
func (a *ReceiptArchive) Open(filename string) (*os.File, error) {
	file, err := os.Open(a.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open receipt file: %w", err)
	}
	return file, nil
}

// Path returns the on-disk location for an archived receipt.
func (a *ReceiptArchive) Path(filename string) string {
	return a.resolve(filename)
}

// Exists reports whether an archived receipt is present.
func (a *ReceiptArchive) Exists(filename string) bool {
	_, err := os.Stat(a.resolve(filename))
	return err == nil
}

// Delete removes an archived receipt if present.
func (a *ReceiptArchive) Delete(filename string) error {
	if err := os.Remove(a.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete receipt file: %w", err)
	}
	return nil
}

func (a *ReceiptArchive) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(a.baseDir, filename)
}
