package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"broodcore/pkg/domain"
)

// stubConn emulates the narrow slice of Postgres behaviour the store uses:
// DDL execution, bucket upserts into the state table, and state selection.
type stubConn struct {
	mu      sync.Mutex
	buckets map[string][]byte
	execs   []string
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }
func (c *stubConn) Ping(context.Context) error          { return nil }

func (c *stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return stubTx{}, nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, query)
	if strings.HasPrefix(strings.TrimSpace(query), "INSERT INTO state") {
		bucket, _ := args[0].Value.(string)
		payload, _ := args[1].Value.([]byte)
		c.buckets[bucket] = append([]byte(nil), payload...)
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(query, "FROM state") {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.buckets))
	for k := range c.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := &stubRows{}
	for _, k := range keys {
		rows.rows = append(rows.rows, [2]driver.Value{k, append([]byte(nil), c.buckets[k]...)})
	}
	return rows, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubRows struct {
	rows [][2]driver.Value
	pos  int
}

func (r *stubRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *stubRows) Close() error      { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	dest[0] = r.rows[r.pos][0]
	dest[1] = r.rows[r.pos][1]
	r.pos++
	return nil
}

func newStubStore(t *testing.T, conn *stubConn) *Store {
	t.Helper()
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.Open(name, "stub")
	})
	t.Cleanup(restore)
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestPostgresStoreSnapshotsAndRehydrates(t *testing.T) {
	conn := &stubConn{buckets: make(map[string][]byte)}
	store := newStubStore(t, conn)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	plan, err := store.CreatePlan(ctx, domain.BreedingPlan{
		DamID:              "dam-1",
		Species:            "dog",
		CycleStartObserved: &start,
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if _, err := store.TransitionPlan(ctx, plan.ID, domain.PlanStatusDraft, domain.PlanStatusCommitted, func(p *domain.BreedingPlan) error {
		p.LockedCycle = &domain.LockedCycle{RegistryVersion: "builtin-v1", CycleStart: start}
		return nil
	}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	// A second store opened against the same backing data must see the
	// committed plan.
	rehydrated := newStubStore(t, conn)
	got, ok := rehydrated.GetPlan(plan.ID)
	if !ok {
		t.Fatalf("plan missing after rehydrate")
	}
	if got.Status != domain.PlanStatusCommitted || got.LockedCycle == nil {
		t.Fatalf("rehydrated plan diverged: %+v", got)
	}

	var sawDDL bool
	conn.mu.Lock()
	for _, q := range conn.execs {
		if strings.Contains(q, "CREATE TABLE IF NOT EXISTS state") {
			sawDDL = true
		}
	}
	conn.mu.Unlock()
	if !sawDDL {
		t.Fatalf("state table DDL never executed")
	}
}
