package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepStart EventType = "step_start"
	EventStepEnd   EventType = "step_end"
	EventLoopEnd   EventType = "loop_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Loop      LoopKind  `json:"loop"`
}

// StepEvent represents the start or end of a generate/review step.
type StepEvent struct {
	EventBase
	Step      Step          `json:"step"`
	Iteration int           `json:"iteration"`
	Duration  time.Duration `json:"duration,omitempty"`
	Approved  bool          `json:"approved,omitempty"` // Review outcome (review steps only)
	Err       error         `json:"-"`
}

// LoopEvent is emitted once when a loop halts normally.
type LoopEvent struct {
	EventBase
	Iterations int           `json:"iterations"`
	Reviews    int           `json:"reviews"`
	Approved   bool          `json:"approved"`
	Duration   time.Duration `json:"duration"`
}

// LoopHooks defines callbacks for loop observability. Nil callbacks are skipped.
type LoopHooks struct {
	OnStepStart func(context.Context, *StepEvent)
	OnStepEnd   func(context.Context, *StepEvent)
	OnLoopEnd   func(context.Context, *LoopEvent)
}

// Merge returns hooks that call h first and then other.
func (h LoopHooks) Merge(other LoopHooks) LoopHooks {
	return LoopHooks{
		OnStepStart: chainStep(h.OnStepStart, other.OnStepStart),
		OnStepEnd:   chainStep(h.OnStepEnd, other.OnStepEnd),
		OnLoopEnd:   chainLoop(h.OnLoopEnd, other.OnLoopEnd),
	}
}

func chainStep(a, b func(context.Context, *StepEvent)) func(context.Context, *StepEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainLoop(a, b func(context.Context, *LoopEvent)) func(context.Context, *LoopEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *LoopEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
