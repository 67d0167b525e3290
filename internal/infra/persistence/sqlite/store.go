// Package sqlite provides a durable plan store that snapshots the in-memory
// state to a single SQLite table as JSON buckets after every successful
// mutation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"broodcore/internal/infra/persistence/memory"
	"broodcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PlanStore = (*Store)(nil)

const defaultPath = "broodcore.db"

var sqliteBuckets = []string{"plans", "cycles"}

// Store layers SQLite persistence over the in-memory plan store. The
// compare-and-set semantics of TransitionPlan are inherited from the memory
// store; this layer only makes the winning state durable.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) a SQLite-backed store at path and hydrates the
// in-memory state from any existing snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	var loaded bool
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		loaded = true
		switch bucket {
		case "plans":
			if err := json.Unmarshal(payload, &snapshot.Plans); err != nil {
				return fmt.Errorf("decode plans: %w", err)
			}
		case "cycles":
			if err := json.Unmarshal(payload, &snapshot.Cycles); err != nil {
				return fmt.Errorf("decode cycles: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "plans":
			data, err = json.Marshal(snapshot.Plans)
		case "cycles":
			data, err = json.Marshal(snapshot.Cycles)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// CreatePlan persists a new plan and snapshots state.
func (s *Store) CreatePlan(ctx context.Context, plan domain.BreedingPlan) (domain.BreedingPlan, error) {
	created, err := s.Store.CreatePlan(ctx, plan)
	if err != nil {
		return created, err
	}
	return created, s.persist()
}

// UpdatePlan applies a guarded mutation and snapshots state.
func (s *Store) UpdatePlan(ctx context.Context, id string, mutator func(*domain.BreedingPlan) error) (domain.BreedingPlan, error) {
	updated, err := s.Store.UpdatePlan(ctx, id, mutator)
	if err != nil {
		return updated, err
	}
	return updated, s.persist()
}

// TransitionPlan performs the compare-and-set transition and snapshots state
// only after the in-memory write succeeded.
func (s *Store) TransitionPlan(ctx context.Context, id string, from, to domain.PlanStatus, apply func(*domain.BreedingPlan) error) (domain.BreedingPlan, error) {
	transitioned, err := s.Store.TransitionPlan(ctx, id, from, to, apply)
	if err != nil {
		return transitioned, err
	}
	return transitioned, s.persist()
}

// CreateCycle appends a cycle record and snapshots state.
func (s *Store) CreateCycle(ctx context.Context, cycle domain.ReproductiveCycle) (domain.ReproductiveCycle, error) {
	created, err := s.Store.CreateCycle(ctx, cycle)
	if err != nil {
		return created, err
	}
	return created, s.persist()
}

// UpdateCycle mutates a cycle record and snapshots state.
func (s *Store) UpdateCycle(ctx context.Context, id string, mutator func(*domain.ReproductiveCycle) error) (domain.ReproductiveCycle, error) {
	updated, err := s.Store.UpdateCycle(ctx, id, mutator)
	if err != nil {
		return updated, err
	}
	return updated, s.persist()
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
