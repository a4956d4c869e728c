package local

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reflexlabs/reflex/internal/storage"
)

type testDoc struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	newDir := filepath.Join(tmpDir, "subdir", "nested")

	store, err := NewStore(newDir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store == nil {
		t.Fatal("NewStore() returned nil")
	}

	info, err := os.Stat(newDir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory, got file")
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	in := testDoc{Name: "analytics", Value: 42}
	if err := store.Save("analytics", in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out testDoc
	if err := store.Load("analytics", &out); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out != in {
		t.Errorf("Load() = %+v, want %+v", out, in)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	var out testDoc
	err := store.Load("nope", &out)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	store.Save("doc", testDoc{Name: "first", Value: 1})
	store.Save("doc", testDoc{Name: "second", Value: 2})

	var out testDoc
	if err := store.Load("doc", &out); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Name != "second" || out.Value != 2 {
		t.Errorf("Load() = %+v, want the replacement document", out)
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	store.Save("doc", testDoc{Name: "x"})
	if err := store.Delete("doc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists("doc") {
		t.Error("document should not exist after delete")
	}
	if err := store.Delete("doc"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Exists(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	if store.Exists("doc") {
		t.Error("Exists() should be false before save")
	}
	store.Save("doc", testDoc{})
	if !store.Exists("doc") {
		t.Error("Exists() should be true after save")
	}
}

func TestStore_QuotaExceeded(t *testing.T) {
	store, err := NewStore(t.TempDir(), WithMaxDocumentBytes(16))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	err = store.Save("doc", testDoc{Name: "far too large for the quota", Value: 12345})
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("Save() error = %v, want ErrQuotaExceeded", err)
	}

	if store.Exists("doc") {
		t.Error("over-quota write should not leave a document behind")
	}
}
