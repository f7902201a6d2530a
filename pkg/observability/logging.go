package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/skillflow/pkg/domain"
)

// LoggingHooks logs every step and the end of each loop run.
func LoggingHooks(logger *slog.Logger) domain.LoopHooks {
	return domain.LoopHooks{
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_start",
				"loop", e.Loop,
				"step", e.Step.String(),
				"iteration", e.Iteration,
			)
		},
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "step_failed",
					"loop", e.Loop,
					"step", e.Step.String(),
					"iteration", e.Iteration,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			attrs := []any{
				"loop", e.Loop,
				"step", e.Step.String(),
				"iteration", e.Iteration,
				"duration", e.Duration,
			}
			if e.Step == domain.StepReview {
				attrs = append(attrs, "approved", e.Approved)
			}
			logger.InfoContext(ctx, "step_end", attrs...)
		},
		OnLoopEnd: func(ctx context.Context, e *domain.LoopEvent) {
			logger.InfoContext(ctx, "loop_end",
				"loop", e.Loop,
				"iterations", e.Iterations,
				"reviews", e.Reviews,
				"approved", e.Approved,
				"duration", e.Duration,
			)
		},
	}
}
