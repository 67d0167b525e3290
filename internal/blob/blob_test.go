package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestMemoryPutGetList(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	info, err := store.Put(ctx, "plans/p1/locked.json", bytes.NewReader([]byte(`{"a":1}`)))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 {
		t.Fatalf("expected size 7 got %d", info.Size)
	}
	if _, err := store.Put(ctx, "plans/p2/locked.json", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("put second: %v", err)
	}

	rc, got, err := store.Get(ctx, "plans/p1/locked.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"a":1}` || got.Key != "plans/p1/locked.json" {
		t.Fatalf("unexpected payload %q info %+v", data, got)
	}

	if _, _, err := store.Get(ctx, "plans/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	infos, err := store.List(ctx, "plans/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "plans/p1/locked.json" {
		t.Fatalf("unexpected listing %+v", infos)
	}
}

func TestFilesystemRoundtrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilesystem(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Put(ctx, "plans/p1/audit/0001.json", bytes.NewReader([]byte("event"))); err != nil {
		t.Fatalf("put: %v", err)
	}
	rc, info, err := store.Get(ctx, "plans/p1/audit/0001.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "event" || info.Size != 5 {
		t.Fatalf("unexpected payload %q info %+v", data, info)
	}

	infos, err := store.List(ctx, "plans/p1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != "plans/p1/audit/0001.json" {
		t.Fatalf("unexpected listing %+v", infos)
	}

	if _, _, err := store.Get(ctx, "plans/p1/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"../escape", "/abs/path", "."} {
		if _, err := store.Put(context.Background(), key, bytes.NewReader(nil)); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Setenv("BROODCORE_BLOB_DRIVER", "memory")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*Memory); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	t.Setenv("BROODCORE_BLOB_DRIVER", "fs")
	t.Setenv("BROODCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(context.Background())
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if _, ok := store.(*Filesystem); !ok {
		t.Fatalf("expected filesystem store, got %T", store)
	}

	t.Setenv("BROODCORE_BLOB_DRIVER", "bogus")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}

	t.Setenv("BROODCORE_BLOB_DRIVER", "s3")
	t.Setenv("BROODCORE_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error when s3 bucket unset")
	}
}
