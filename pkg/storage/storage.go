package storage

import (
	"io"
	"path/filepath"
	"strings"
)

// FileInfo describes a stored file.
type FileInfo struct {
	ID       string // unique identifier
	Name     string // original file name
	Size     int64  // size in bytes
	MimeType string // MIME type
	Path     string // storage path, implementation specific
}

// Storage holds uploaded documents and rendered reports. Implementations
// exist for the local filesystem and MinIO.
type Storage interface {
	// Save stores a file under a generated ID and returns its info.
	Save(reader io.Reader, filename string) (FileInfo, error)

	// SaveAt stores a file at an explicit path, overwriting any
	// existing file. Used for rendered reports.
	SaveAt(reader io.Reader, path string) (FileInfo, error)

	// Get returns the file content for an ID.
	Get(id string) (io.ReadCloser, error)

	// GetByPath returns the file content at an explicit path.
	GetByPath(path string) (io.ReadCloser, error)

	// Delete removes a file by ID.
	Delete(id string) error

	// List returns all stored files.
	List() ([]FileInfo, error)

	// Exists reports whether a file with the ID exists.
	Exists(id string) (bool, error)
}

func getMimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", ".log":
		return "text/plain"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx", ".xlsm":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
