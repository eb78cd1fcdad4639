package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/consum-be/internal/adapters/db"
	"github.com/ammerola/consum-be/internal/core/ports"
	"github.com/ammerola/consum-be/test/helpers"
)

// fakeRows is an in-memory pgx.Rows
type fakeRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	pos    int
	closed bool
	err    error
}

func newRows(columns []string, data ...[]any) *fakeRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return &fakeRows{fields: fields, data: data, pos: -1}
}

func (r *fakeRows) Close() { r.closed = true }

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.data)))
}

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }

func (r *fakeRows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	if r.pos >= len(r.data) {
		r.closed = true
		return false
	}
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return errors.New("scan not supported by fakeRows") }

func (r *fakeRows) Values() ([]any, error) { return r.data[r.pos], nil }

func (r *fakeRows) RawValues() [][]byte { return nil }

func (r *fakeRows) Conn() *pgx.Conn { return nil }

type call struct {
	sql  string
	args []any
}

type result struct {
	rows *fakeRows
	tag  string
	err  error
}

// fakeConn records statements and replays scripted results in order
type fakeConn struct {
	id     int
	closed atomic.Bool

	mu      sync.Mutex
	calls   []call
	results []result
	block   bool
}

var _ ports.Querier = (*fakeConn)(nil)

func (c *fakeConn) push(r result) *fakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
	return c
}

func (c *fakeConn) next(ctx context.Context, sql string, args []any) (result, error) {
	c.mu.Lock()
	c.calls = append(c.calls, call{sql: sql, args: args})
	block := c.block
	var r result
	if len(c.results) > 0 {
		r = c.results[0]
		c.results = c.results[1:]
	} else {
		r = result{err: errors.New("unexpected statement")}
	}
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return result{}, ctx.Err()
	}
	return r, nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	r, err := c.next(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.rows == nil {
		return newRows(nil), nil
	}
	return r.rows, nil
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r, err := c.next(ctx, sql, args)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	return pgconn.NewCommandTag(r.tag), nil
}

func (c *fakeConn) Calls() []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]call(nil), c.calls...)
}

// fakeManager dials fakeConns. IsValid fails once a connection's transport
// is closed; HasBroken only reports that when reportBroken is set.
type fakeManager struct {
	mu           sync.Mutex
	dialed       []*fakeConn
	attempts     int
	closedCount  int
	connectErr   error
	reportBroken bool
}

func (m *fakeManager) Connect(ctx context.Context) (*fakeConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	c := &fakeConn{id: len(m.dialed) + 1}
	m.dialed = append(m.dialed, c)
	return c, nil
}

func (m *fakeManager) IsValid(ctx context.Context, c *fakeConn) error {
	if c.closed.Load() {
		return errors.New("transport closed")
	}
	return nil
}

func (m *fakeManager) HasBroken(c *fakeConn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reportBroken && c.closed.Load()
}

func (m *fakeManager) Close(ctx context.Context, c *fakeConn) error {
	c.closed.Store(true)
	m.mu.Lock()
	m.closedCount++
	m.mu.Unlock()
	return nil
}

func (m *fakeManager) setConnectErr(err error) {
	m.mu.Lock()
	m.connectErr = err
	m.mu.Unlock()
}

func (m *fakeManager) connectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *fakeManager) dialCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dialed)
}

// singleConnManager always hands out the same scripted connection
type singleConnManager struct {
	db.NeverBroken[ports.Querier]
	conn *fakeConn
}

func (m *singleConnManager) Connect(context.Context) (ports.Querier, error) { return m.conn, nil }

func (m *singleConnManager) IsValid(context.Context, ports.Querier) error { return nil }

func (m *singleConnManager) Close(context.Context, ports.Querier) error { return nil }

func newTestPool(t *testing.T, m *fakeManager, size int32) *db.Pool[*fakeConn] {
	t.Helper()
	cfg := db.DefaultPoolConfig()
	cfg.MaxSize = size
	cfg.AcquireTimeout = 100 * time.Millisecond
	p := db.NewPool[*fakeConn](m, cfg, helpers.TestLogger())
	t.Cleanup(p.Close)
	return p
}

func newQuerierPool(t *testing.T, conn *fakeConn) *db.Pool[ports.Querier] {
	t.Helper()
	cfg := db.DefaultPoolConfig()
	cfg.MaxSize = 1
	p := db.NewPool[ports.Querier](&singleConnManager{conn: conn}, cfg, helpers.TestLogger())
	t.Cleanup(p.Close)
	return p
}
