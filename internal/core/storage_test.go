package core

import (
	"path/filepath"
	"testing"

	"broodcore/internal/infra/persistence/memory"
	"broodcore/internal/infra/persistence/sqlite"
)

func TestOpenPlanStoreSelectsDriver(t *testing.T) {
	t.Setenv("BROODCORE_STORAGE_DRIVER", "memory")
	store, err := OpenPlanStore()
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store got %T", store)
	}

	t.Setenv("BROODCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("BROODCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "broodcore.db"))
	store, err = OpenPlanStore()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ss, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store got %T", store)
	}
	if err := ss.Close(); err != nil {
		t.Fatalf("close sqlite: %v", err)
	}

	t.Setenv("BROODCORE_STORAGE_DRIVER", "bogus")
	if _, err := OpenPlanStore(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
