package domain

import "time"

// RunRecord summarises a finished loop run for later inspection.
// It is written by callers after the loop halts; the loop itself keeps no history.
type RunRecord struct {
	ID            string    `json:"id"`
	Loop          LoopKind  `json:"loop"`
	Subject       string    `json:"subject"` // Topic or lesson title
	Iterations    int       `json:"iterations"`
	MaxIterations int       `json:"max_iterations"`
	Approved      bool      `json:"approved"`
	Feedback      string    `json:"feedback,omitempty"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}
