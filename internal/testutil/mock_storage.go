// mock_storage.go - In-memory project store for handler tests
package testutil

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/storage"
)

// MockStorage implements storage.Store in memory.
type MockStorage struct {
	files    map[string]*models.ProjectInfo
	projects map[string]*models.Project
	fileData map[string][]byte
	mu       sync.RWMutex
	nextID   int
}

// NewMockStorage creates an empty mock store.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:    make(map[string]*models.ProjectInfo),
		projects: make(map[string]*models.Project),
		fileData: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(name, format string, r io.Reader, project *models.Project) (*models.ProjectInfo, error) {
	if project == nil {
		return nil, errors.New("project is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("test-%d", m.nextID)
	m.mu.Unlock()

	return m.AddProject(id, name, format, data, project), nil
}

func (m *MockStorage) Get(id string) (*models.ProjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return info, nil
}

func (m *MockStorage) Project(id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return p, nil
}

func (m *MockStorage) List(limit int) ([]*models.ProjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.ProjectInfo
	for _, info := range m.files {
		files = append(files, info)
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	return files, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	delete(m.files, id)
	delete(m.projects, id)
	delete(m.fileData, id)
	return nil
}

func (m *MockStorage) Rename(id string, newName string) (*models.ProjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	info.Name = newName
	return info, nil
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	return "/mock/path/" + id, nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddProject stores a project directly under a fixed ID.
func (m *MockStorage) AddProject(id, name, format string, data []byte, project *models.Project) *models.ProjectInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &models.ProjectInfo{
		ID:          id,
		Name:        name,
		Size:        int64(len(data)),
		UploadedAt:  time.Now(),
		ProjectID:   project.ID,
		SignalCount: project.SignalCount(),
		Format:      format,
	}
	m.files[id] = info
	m.projects[id] = project
	m.fileData[id] = data
	return info
}

// GetFileData returns the raw upload.
func (m *MockStorage) GetFileData(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.fileData[id]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}
