package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/skillflow/internal/logging"
	"github.com/aretw0/skillflow/pkg/ports"
)

// DefaultTTL bounds how long a distributed lock survives a crashed holder.
const DefaultTTL = 5 * time.Minute

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Guard runs functions under a per-key lock.
type Guard struct {
	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.DistributedLocker
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Guard.
type Option func(*Guard)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(g *Guard) {
		g.locker = locker
	}
}

// WithTTL sets the distributed lock TTL.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		g.ttl = ttl
	}
}

// WithLogger configures a logger for the Guard.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// New creates a Guard.
func New(opts ...Option) *Guard {
	g := &Guard{
		locks:  make(map[string]*lockEntry),
		ttl:    DefaultTTL,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (g *Guard) acquire(key string) *lockEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[key]
	if !exists {
		entry = &lockEntry{}
		g.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (g *Guard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(g.locks, key)
	}
}

// WithLock executes fn while holding the lock for key.
func (g *Guard) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := g.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		g.release(key)
	}()

	if g.locker != nil {
		unlock, err := g.locker.Lock(ctx, key, g.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's ctx may already be cancelled; releasing must still happen.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				g.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
