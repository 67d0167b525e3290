// Package blob provides the object-storage abstraction used to archive
// locked-cycle snapshots and audit trails outside the primary store.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a blob backend driver.
type Driver string

// Supported blob drivers.
const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem Driver = "fs"
	// DriverS3 is the S3-compatible driver.
	DriverS3 Driver = "s3"
	// DriverMemory is the in-memory test driver.
	DriverMemory Driver = "memory"
)

// Info describes stored blob metadata.
type Info struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Store is the interface for blob storage backends. Keys are slash-separated
// paths; writes replace any existing object under the same key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, Info, error)
	List(ctx context.Context, prefix string) ([]Info, error)
}

// ErrNotFound indicates the requested key does not exist.
var ErrNotFound = errors.New("blob: not found")
