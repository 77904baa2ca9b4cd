// Package storage provides root-scoped file access and JSON document I/O
// for vault and application metadata.
package storage

import "io/fs"

// Provider is the interface for root-scoped file operations. All paths are
// relative to the provider root.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// EnsureDir creates dir and any missing parents. Existing dirs are not an error.
	EnsureDir(dir string) error
	// Stat describes the file at path.
	Stat(path string) (fs.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
}
