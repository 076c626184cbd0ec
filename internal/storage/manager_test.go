// manager_test.go - Tests for the project store
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/indusense/testgen/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "projects")

		if _, err := NewLocalStore(uploadDir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file and indexes project", func(t *testing.T) {
		store := createTestStore(t)
		content := `{"project_id": "P-2026-PILOT"}`

		info, err := store.Save("pilot.json", "json", strings.NewReader(content), models.SampleProject())
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.ProjectID != "P-2026-PILOT" || info.SignalCount != 2 || info.Format != "json" {
			t.Errorf("Unexpected project info: %+v", info)
		}

		path, err := store.GetFilePath(info.ID)
		if err != nil {
			t.Fatalf("GetFilePath failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil || string(data) != content {
			t.Errorf("Expected file content %q, got %q (%v)", content, data, err)
		}

		p, err := store.Project(info.ID)
		if err != nil {
			t.Fatalf("Project failed: %v", err)
		}
		if p.System != "Indigo500 Transmitter" {
			t.Errorf("Unexpected project: %+v", p)
		}
	})

	t.Run("rejects nil project", func(t *testing.T) {
		store := createTestStore(t)
		if _, err := store.Save("x.json", "json", strings.NewReader("{}"), nil); err == nil {
			t.Error("Expected error for nil project")
		}
	})
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		if _, err := store.Save(name, "json", strings.NewReader("{}"), models.SampleProject()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	list, err := store.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(list))
	}
	if list[0].Name != "c.json" || list[1].Name != "b.json" {
		t.Errorf("Expected newest first, got %s, %s", list[0].Name, list[1].Name)
	}

	all, _ := store.List(0)
	if len(all) != 3 {
		t.Errorf("Expected 3 files, got %d", len(all))
	}
}

func TestLocalStore_DeleteAndRename(t *testing.T) {
	store := createTestStore(t)
	info, err := store.Save("a.yaml", "yaml", strings.NewReader("project_id: P"), models.SampleProject())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	renamed, err := store.Rename(info.ID, "pilot.yaml")
	if err != nil || renamed.Name != "pilot.yaml" {
		t.Errorf("Rename failed: %v %+v", err, renamed)
	}

	path, _ := store.GetFilePath(info.ID)
	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file to be removed from disk")
	}

	for name, err := range map[string]error{
		"get":     func() error { _, err := store.Get(info.ID); return err }(),
		"project": func() error { _, err := store.Project(info.ID); return err }(),
		"delete":  store.Delete(info.ID),
		"path":    func() error { _, err := store.GetFilePath(info.ID); return err }(),
	} {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}
