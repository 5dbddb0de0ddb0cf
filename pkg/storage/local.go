package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage stores files on the local filesystem.
type LocalStorage struct {
	basePath string
}

// LocalConfig holds local storage settings.
type LocalConfig struct {
	Path string
}

// NewLocalStorage creates a local storage rooted at the given path.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %v", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}
	return &LocalStorage{basePath: absPath}, nil
}

// Save stores a file under a generated ID.
func (s *LocalStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	ext := filepath.Ext(filename)

	now := time.Now()
	datePath := filepath.Join(fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))
	relPath := filepath.Join(datePath, id+ext)

	size, err := s.writeFile(reader, relPath)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     size,
		MimeType: getMimeType(filename),
		Path:     relPath,
	}, nil
}

// SaveAt stores a file at an explicit path relative to the storage root.
func (s *LocalStorage) SaveAt(reader io.Reader, path string) (FileInfo, error) {
	size, err := s.writeFile(reader, path)
	if err != nil {
		return FileInfo{}, err
	}

	fileName := filepath.Base(path)
	return FileInfo{
		ID:       strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		Name:     fileName,
		Size:     size,
		MimeType: getMimeType(fileName),
		Path:     path,
	}, nil
}

func (s *LocalStorage) writeFile(reader io.Reader, relPath string) (int64, error) {
	fullPath := filepath.Join(s.basePath, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %v", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to write file: %v", err)
	}
	return size, nil
}

// Get returns the file content for an ID.
func (s *LocalStorage) Get(id string) (io.ReadCloser, error) {
	filePath, err := s.findFilePathByID(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	return file, nil
}

// GetByPath returns the file content at an explicit path.
func (s *LocalStorage) GetByPath(path string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.basePath, path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	return file, nil
}

// Delete removes a file by ID.
func (s *LocalStorage) Delete(id string) error {
	filePath, err := s.findFilePathByID(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

// List returns all stored files.
func (s *LocalStorage) List() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		fileName := filepath.Base(path)
		files = append(files, FileInfo{
			ID:       strings.TrimSuffix(fileName, filepath.Ext(fileName)),
			Name:     fileName,
			Size:     info.Size(),
			MimeType: getMimeType(fileName),
			Path:     relPath,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}
	return files, nil
}

// Exists reports whether a file with the ID exists.
func (s *LocalStorage) Exists(id string) (bool, error) {
	_, err := s.findFilePathByID(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalStorage) findFilePathByID(id string) (string, error) {
	var filePath string
	var found bool

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		fileName := filepath.Base(path)
		if strings.TrimSuffix(fileName, filepath.Ext(fileName)) == id {
			filePath = path
			found = true
			return io.EOF // stop walking
		}
		return nil
	})
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("error searching for file: %v", err)
	}
	if !found {
		return "", fmt.Errorf("file with id %s not found", id)
	}
	return filePath, nil
}
