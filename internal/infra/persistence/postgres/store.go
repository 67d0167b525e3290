// Package postgres provides a Postgres-backed plan store that mirrors the
// in-memory semantics while persisting snapshots to a JSONB state table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"broodcore/internal/infra/persistence/memory"
	"broodcore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PlanStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/broodcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var postgresBuckets = []string{"plans", "cycles"}

// Store persists plan state to Postgres while reusing the in-memory
// implementation for compare-and-set semantics.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		switch bucket {
		case "plans":
			if err := json.Unmarshal(payload, &snapshot.Plans); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode plans: %w", err)
			}
		case "cycles":
			if err := json.Unmarshal(payload, &snapshot.Cycles); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode cycles: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range postgresBuckets {
		var data []byte
		switch bucket {
		case "plans":
			data, err = json.Marshal(snapshot.Plans)
		case "cycles":
			data, err = json.Marshal(snapshot.Cycles)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// CreatePlan persists a new plan and snapshots state to Postgres.
func (s *Store) CreatePlan(ctx context.Context, plan domain.BreedingPlan) (domain.BreedingPlan, error) {
	created, err := s.Store.CreatePlan(ctx, plan)
	if err != nil {
		return created, err
	}
	return created, s.persist(ctx)
}

// UpdatePlan applies a guarded mutation and snapshots state to Postgres.
func (s *Store) UpdatePlan(ctx context.Context, id string, mutator func(*domain.BreedingPlan) error) (domain.BreedingPlan, error) {
	updated, err := s.Store.UpdatePlan(ctx, id, mutator)
	if err != nil {
		return updated, err
	}
	return updated, s.persist(ctx)
}

// TransitionPlan performs the compare-and-set transition, then snapshots to
// Postgres if the in-memory write succeeded.
func (s *Store) TransitionPlan(ctx context.Context, id string, from, to domain.PlanStatus, apply func(*domain.BreedingPlan) error) (domain.BreedingPlan, error) {
	transitioned, err := s.Store.TransitionPlan(ctx, id, from, to, apply)
	if err != nil {
		return transitioned, err
	}
	return transitioned, s.persist(ctx)
}

// CreateCycle appends a cycle record and snapshots state to Postgres.
func (s *Store) CreateCycle(ctx context.Context, cycle domain.ReproductiveCycle) (domain.ReproductiveCycle, error) {
	created, err := s.Store.CreateCycle(ctx, cycle)
	if err != nil {
		return created, err
	}
	return created, s.persist(ctx)
}

// UpdateCycle mutates a cycle record and snapshots state to Postgres.
func (s *Store) UpdateCycle(ctx context.Context, id string, mutator func(*domain.ReproductiveCycle) error) (domain.ReproductiveCycle, error) {
	updated, err := s.Store.UpdateCycle(ctx, id, mutator)
	if err != nil {
		return updated, err
	}
	return updated, s.persist(ctx)
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
