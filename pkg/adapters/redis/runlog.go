// Package redis implements the run log and the distributed locker on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/ports"
)

var _ ports.RunLog = (*RunLog)(nil)

// DefaultPrefix namespaces every key the run log writes.
const DefaultPrefix = "skillflow:run:"

// RunLog implements ports.RunLog using one JSON key per run and a sorted-set
// index scored by start time.
type RunLog struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*RunLog)

// WithTTL sets the expiration for run records. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(l *RunLog) {
		l.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *RunLog) {
		l.prefix = prefix
	}
}

// New connects to Redis and returns a run log.
func New(address, password string, db int, opts ...Option) *RunLog {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a run log from an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *RunLog {
	l := &RunLog{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Client exposes the underlying client so a Locker can share the connection.
func (l *RunLog) Client() backend.UniversalClient {
	return l.client
}

func (l *RunLog) key(id string) string {
	return l.prefix + id
}

func (l *RunLog) indexKey() string {
	return l.prefix + "index"
}

// Record stores the run and indexes it by start time.
func (l *RunLog) Record(ctx context.Context, rec domain.RunRecord) error {
	if rec.ID == "" {
		return errors.New("run id is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.Set(ctx, l.key(rec.ID), data, l.ttl)
	pipe.ZAdd(ctx, l.indexKey(), backend.Z{
		Score:  float64(rec.StartedAt.UnixNano()),
		Member: rec.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run to redis: %w", err)
	}
	return nil
}

func (l *RunLog) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	val, err := l.client.Get(ctx, l.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get run from redis: %w", err)
	}

	var rec domain.RunRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &rec, nil
}

// Recent walks the index newest first. Index entries whose record has
// expired are removed as they are found.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	var out []domain.RunRecord
	var start int64
	for {
		ids, err := l.client.ZRevRange(ctx, l.indexKey(), start, stop).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		if len(ids) == 0 {
			return out, nil
		}

		var stale []any
		for _, id := range ids {
			rec, err := l.Get(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				stale = append(stale, id)
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, *rec)
		}
		if len(stale) == 0 || limit <= 0 {
			if len(stale) > 0 {
				if err := l.client.ZRem(ctx, l.indexKey(), stale...).Err(); err != nil {
					return nil, fmt.Errorf("failed to prune expired runs: %w", err)
				}
			}
			return out, nil
		}

		if err := l.client.ZRem(ctx, l.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired runs: %w", err)
		}
		// The pruned entries shifted the index; fetch what is still missing.
		start = int64(len(out))
		stop = int64(limit) - 1
		if start > stop {
			return out, nil
		}
	}
}

// Close closes the redis client.
func (l *RunLog) Close() error {
	return l.client.Close()
}
