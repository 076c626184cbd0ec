package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/indusense/testgen/internal/models"
)

// ErrNotFound is returned for unknown project file IDs.
var ErrNotFound = errors.New("project file not found")

// Store defines the interface for uploaded project storage.
type Store interface {
	Save(name, format string, r io.Reader, project *models.Project) (*models.ProjectInfo, error)
	Get(id string) (*models.ProjectInfo, error)
	Project(id string) (*models.Project, error)
	List(limit int) ([]*models.ProjectInfo, error)
	Delete(id string) error
	Rename(id string, newName string) (*models.ProjectInfo, error)
	GetFilePath(id string) (string, error)
}

type record struct {
	info    *models.ProjectInfo
	project *models.Project
}

// LocalStore keeps uploaded project files on disk and their decoded
// projects in memory.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*record
	now       func() time.Time
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*record),
		now:       time.Now,
	}, nil
}

// Save writes the raw upload to disk and indexes the decoded project.
func (s *LocalStore) Save(name, format string, r io.Reader, project *models.Project) (*models.ProjectInfo, error) {
	if project == nil {
		return nil, errors.New("project is required")
	}

	id := uuid.New().String()
	path := filepath.Join(s.uploadDir, id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.ProjectInfo{
		ID:          id,
		Name:        name,
		Size:        size,
		UploadedAt:  s.now(),
		ProjectID:   project.ID,
		SignalCount: project.SignalCount(),
		Format:      format,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = &record{info: info, project: project}

	return info, nil
}

// Get retrieves file metadata by ID.
func (s *LocalStore) Get(id string) (*models.ProjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	info := *rec.info
	return &info, nil
}

// Project returns the decoded project of a stored file.
func (s *LocalStore) Project(id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.project, nil
}

// List returns the most recent uploads, newest first. limit <= 0 returns all.
func (s *LocalStore) List(limit int) ([]*models.ProjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.ProjectInfo, 0, len(s.files))
	for _, rec := range s.files {
		info := *rec.info
		list = append(list, &info)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	path := filepath.Join(s.uploadDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.files, id)
	return nil
}

// Rename updates the display name of a file.
func (s *LocalStore) Rename(id string, newName string) (*models.ProjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	rec.info.Name = newName
	info := *rec.info
	return &info, nil
}

// GetFilePath returns the absolute path to a file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[id]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return filepath.Join(s.uploadDir, id), nil
}
