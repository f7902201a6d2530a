package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a roadmap, lesson or run record does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoArtifact is returned when a loop halted without producing an artifact.
var ErrNoArtifact = errors.New("loop produced no artifact")

// ErrInvalidArtifact marks a generator output that does not match the expected shape.
var ErrInvalidArtifact = errors.New("invalid artifact")

// GenerationError reports a failed generator invocation. It is fatal to the run.
type GenerationError struct {
	Loop      LoopKind
	Iteration int
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s loop: generation %d failed: %v", e.Loop, e.Iteration, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ReviewError reports a failed reviewer invocation. It is fatal to the run.
type ReviewError struct {
	Loop      LoopKind
	Iteration int
	Err       error
}

func (e *ReviewError) Error() string {
	return fmt.Sprintf("%s loop: review of generation %d failed: %v", e.Loop, e.Iteration, e.Err)
}

func (e *ReviewError) Unwrap() error { return e.Err }
