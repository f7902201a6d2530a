package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/ports"
)

var _ ports.RunLog = (*RunLog)(nil)

// RunLog implements ports.RunLog in memory, keeping at most a fixed number of records.
type RunLog struct {
	mu      sync.RWMutex
	records map[string]domain.RunRecord
	limit   int
}

// DefaultRunLogLimit bounds the in-memory run log.
const DefaultRunLogLimit = 1000

// NewRunLog creates an in-memory run log. limit <= 0 means DefaultRunLogLimit.
func NewRunLog(limit int) *RunLog {
	if limit <= 0 {
		limit = DefaultRunLogLimit
	}
	return &RunLog{records: make(map[string]domain.RunRecord), limit: limit}
}

func (l *RunLog) Record(ctx context.Context, rec domain.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("run id is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[rec.ID] = rec
	if len(l.records) > l.limit {
		oldest := l.sortedLocked()[len(l.records)-1]
		delete(l.records, oldest.ID)
	}
	return nil
}

func (l *RunLog) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return &rec, nil
}

func (l *RunLog) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := l.sortedLocked()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sortedLocked returns all records, newest first.
func (l *RunLog) sortedLocked() []domain.RunRecord {
	out := make([]domain.RunRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
