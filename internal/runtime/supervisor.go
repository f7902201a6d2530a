package runtime

import "github.com/aretw0/skillflow/pkg/domain"

// DefaultMaxIterations is the generator ceiling used when none is configured.
const DefaultMaxIterations = 1

// NextStep is the supervisor: it inspects a loop state and decides what runs next.
// It has no side effects and returns the same step for the same input.
//
// Rules, in priority order:
//  1. iteration >= maxIterations        -> stop
//  2. review approved                   -> stop
//  3. no artifact yet                   -> generate
//  4. fresh artifact, no current review -> review
//  5. current review rejected           -> generate
//  6. anything else                     -> generate
func NextStep[A, C any](s *domain.LoopState[A, C], maxIterations int) domain.Step {
	if s.Iteration >= maxIterations {
		return domain.StepStop
	}
	if s.Review != nil && s.Review.Approved {
		return domain.StepStop
	}
	if s.Artifact == nil {
		return domain.StepGenerate
	}

	review := currentReview(s)
	if review == nil && s.LastStep == domain.LastStepGenerated {
		return domain.StepReview
	}
	if review != nil && !review.Approved {
		return domain.StepGenerate
	}
	return domain.StepGenerate
}

// currentReview returns the review that judged the current artifact, or nil.
// The generate step leaves Review in place, so a review older than the latest
// generation is stale and must not route the loop back to the generator.
func currentReview[A, C any](s *domain.LoopState[A, C]) *domain.Review {
	if s.LastStep == domain.LastStepGenerated {
		return nil
	}
	return s.Review
}
