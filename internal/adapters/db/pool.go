// internal/adapters/db/pool.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ammerola/consum-be/internal/core/domain"
)

// Manager creates, checks and destroys connections of type C on behalf of a Pool.
type Manager[C any] interface {
	// Connect opens and authenticates a new connection.
	Connect(ctx context.Context) (C, error)
	// IsValid performs a round trip on conn and returns an error if it failed.
	IsValid(ctx context.Context, conn C) error
	// HasBroken reports, without blocking, whether conn is known to be unusable.
	HasBroken(conn C) bool
	// Close releases the resources held by conn.
	Close(ctx context.Context, conn C) error
}

// NeverBroken can be embedded by managers that rely on IsValid alone.
type NeverBroken[C any] struct{}

func (NeverBroken[C]) HasBroken(C) bool { return false }

// PoolConfig holds pool sizing and recycling settings
type PoolConfig struct {
	MaxSize        int32
	AcquireTimeout time.Duration
	MaxLifetime    time.Duration
	MaxIdleTime    time.Duration
	TestOnCheckout bool
	CloseTimeout   time.Duration
}

// DefaultPoolConfig returns default pool settings
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxSize:        10,
		AcquireTimeout: 30 * time.Second,
		MaxLifetime:    time.Hour,
		MaxIdleTime:    30 * time.Minute,
		TestOnCheckout: true,
		CloseTimeout:   5 * time.Second,
	}
}

// PoolStat is a point-in-time snapshot of pool counters
type PoolStat struct {
	MaxSize          int32
	OpenConns        int32
	IdleConns        int32
	InUseConns       int32
	WaitingCount     int64
	AcquireCount     uint64
	CreatedCount     uint64
	DiscardedCount   uint64
	ExhaustedCount   uint64
	FailedCheckCount uint64
}

type idleConn[C any] struct {
	conn      C
	createdAt time.Time
	idleSince time.Time
}

// Pool lends out at most MaxSize connections at a time. Waiters are admitted
// in FIFO order. Connections that fail checkout checks are replaced lazily
// by the acquire that found them.
type Pool[C any] struct {
	manager Manager[C]
	config  PoolConfig
	logger  *slog.Logger
	sem     *semaphore.Weighted
	now     func() time.Time

	mu     sync.Mutex
	idle   []idleConn[C]
	open   int32
	closed bool

	waiting     atomic.Int64
	acquired    atomic.Uint64
	created     atomic.Uint64
	discarded   atomic.Uint64
	exhausted   atomic.Uint64
	failedCheck atomic.Uint64
}

// PooledConn is a connection checked out of a Pool. It must be released
// exactly once; further releases are ignored.
type PooledConn[C any] struct {
	pool       *Pool[C]
	conn       C
	createdAt  time.Time
	checkedOut atomic.Bool
	broken     atomic.Bool
}

// NewPool creates an empty pool. No connections are opened until the first acquire.
func NewPool[C any](manager Manager[C], config PoolConfig, logger *slog.Logger) *Pool[C] {
	if config.MaxSize < 1 {
		config.MaxSize = 1
	}
	if config.CloseTimeout <= 0 {
		config.CloseTimeout = 5 * time.Second
	}

	return &Pool[C]{
		manager: manager,
		config:  config,
		logger:  logger.With(slog.String("component", "pool")),
		sem:     semaphore.NewWeighted(int64(config.MaxSize)),
		now:     time.Now,
		idle:    make([]idleConn[C], 0, config.MaxSize),
	}
}

// Acquire checks out a connection, waiting for a free slot when all MaxSize
// connections are in use. The wait is bounded by AcquireTimeout and by ctx.
func (p *Pool[C]) Acquire(ctx context.Context) (*PooledConn[C], error) {
	if p.isClosed() {
		return nil, domain.ErrPoolClosed
	}

	waitCtx := ctx
	if p.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.config.AcquireTimeout)
		defer cancel()
	}

	p.waiting.Add(1)
	err := p.sem.Acquire(waitCtx, 1)
	p.waiting.Add(-1)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.exhausted.Add(1)
		p.logger.WarnContext(ctx, "connection pool exhausted",
			slog.Int("max_size", int(p.config.MaxSize)),
			slog.Duration("acquire_timeout", p.config.AcquireTimeout))
		return nil, fmt.Errorf("%w after %s", domain.ErrPoolExhausted, p.config.AcquireTimeout)
	}

	pc, err := p.checkout(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}

	p.acquired.Add(1)
	return pc, nil
}

func (p *Pool[C]) checkout(ctx context.Context) (*PooledConn[C], error) {
	ic, ok, err := p.popIdle()
	if err != nil {
		return nil, err
	}
	if !ok {
		return p.dial(ctx)
	}

	if reason := p.unusable(ctx, ic); reason != "" {
		p.failedCheck.Add(1)
		p.logger.DebugContext(ctx, "discarding idle connection", slog.String("reason", reason))
		p.forget()
		p.destroy(ic.conn)
		return p.dial(ctx)
	}

	pc := &PooledConn[C]{pool: p, conn: ic.conn, createdAt: ic.createdAt}
	pc.checkedOut.Store(true)
	return pc, nil
}

func (p *Pool[C]) popIdle() (idleConn[C], bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return idleConn[C]{}, false, domain.ErrPoolClosed
	}
	n := len(p.idle)
	if n == 0 {
		return idleConn[C]{}, false, nil
	}
	ic := p.idle[n-1]
	p.idle[n-1] = idleConn[C]{}
	p.idle = p.idle[:n-1]
	return ic, true, nil
}

func (p *Pool[C]) unusable(ctx context.Context, ic idleConn[C]) string {
	if p.manager.HasBroken(ic.conn) {
		return "broken"
	}
	now := p.now()
	if p.config.MaxLifetime > 0 && now.Sub(ic.createdAt) > p.config.MaxLifetime {
		return "max lifetime exceeded"
	}
	if p.config.MaxIdleTime > 0 && now.Sub(ic.idleSince) > p.config.MaxIdleTime {
		return "max idle time exceeded"
	}
	if p.config.TestOnCheckout {
		if err := p.manager.IsValid(ctx, ic.conn); err != nil {
			return "health check failed: " + err.Error()
		}
	}
	return ""
}

func (p *Pool[C]) dial(ctx context.Context) (*PooledConn[C], error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, domain.ErrPoolClosed
	}
	p.open++
	p.mu.Unlock()

	conn, err := p.manager.Connect(ctx)
	if err != nil {
		p.forget()
		var connectErr *domain.ConnectError
		if !errors.As(err, &connectErr) {
			err = &domain.ConnectError{Err: err}
		}
		p.logger.ErrorContext(ctx, "failed to open connection", slog.String("error", err.Error()))
		return nil, err
	}

	p.created.Add(1)
	p.logger.DebugContext(ctx, "opened connection")

	pc := &PooledConn[C]{pool: p, conn: conn, createdAt: p.now()}
	pc.checkedOut.Store(true)
	return pc, nil
}

// Release returns pc to the idle set, or destroys it when it was marked
// broken, the manager reports it broken, or the pool is closed.
func (p *Pool[C]) Release(pc *PooledConn[C]) {
	if pc == nil || pc.pool != p || !pc.checkedOut.CompareAndSwap(true, false) {
		return
	}

	discard := pc.broken.Load() || p.manager.HasBroken(pc.conn)

	p.mu.Lock()
	if discard || p.closed {
		p.open--
		p.mu.Unlock()
		p.destroy(pc.conn)
	} else {
		p.idle = append(p.idle, idleConn[C]{
			conn:      pc.conn,
			createdAt: pc.createdAt,
			idleSince: p.now(),
		})
		p.mu.Unlock()
	}

	p.sem.Release(1)
}

// WithConn runs fn with a checked-out connection and releases it on every
// exit path. The connection is discarded rather than reused if fn panics or
// ctx ends while fn holds it.
func (p *Pool[C]) WithConn(ctx context.Context, fn func(C) error) error {
	pc, err := p.Acquire(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			pc.MarkBroken()
			p.Release(pc)
			panic(r)
		}
		if ctx.Err() != nil {
			pc.MarkBroken()
		}
		p.Release(pc)
	}()

	return fn(pc.conn)
}

// Close destroys idle connections and prevents new checkouts. Connections
// still checked out are destroyed as they are released.
func (p *Pool[C]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.open -= int32(len(idle))
	p.mu.Unlock()

	for _, ic := range idle {
		p.destroy(ic.conn)
	}
	p.logger.Info("connection pool closed", slog.Int("closed_connections", len(idle)))
}

// Stat returns current pool counters
func (p *Pool[C]) Stat() PoolStat {
	p.mu.Lock()
	open := p.open
	idle := int32(len(p.idle))
	p.mu.Unlock()

	return PoolStat{
		MaxSize:          p.config.MaxSize,
		OpenConns:        open,
		IdleConns:        idle,
		InUseConns:       open - idle,
		WaitingCount:     p.waiting.Load(),
		AcquireCount:     p.acquired.Load(),
		CreatedCount:     p.created.Load(),
		DiscardedCount:   p.discarded.Load(),
		ExhaustedCount:   p.exhausted.Load(),
		FailedCheckCount: p.failedCheck.Load(),
	}
}

func (p *Pool[C]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool[C]) forget() {
	p.mu.Lock()
	p.open--
	p.mu.Unlock()
}

func (p *Pool[C]) destroy(conn C) {
	p.discarded.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), p.config.CloseTimeout)
	defer cancel()
	if err := p.manager.Close(ctx, conn); err != nil {
		p.logger.Debug("error closing connection", slog.String("error", err.Error()))
	}
}

// Conn returns the underlying connection
func (pc *PooledConn[C]) Conn() C {
	return pc.conn
}

// MarkBroken flags the connection to be destroyed on release.
func (pc *PooledConn[C]) MarkBroken() {
	pc.broken.Store(true)
}

// Release returns the connection to its pool.
func (pc *PooledConn[C]) Release() {
	pc.pool.Release(pc)
}
