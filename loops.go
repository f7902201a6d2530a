package skillflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/skillflow/internal/sanitize"
	"github.com/aretw0/skillflow/pkg/domain"
)

// RunRoadmapLoop drafts and reviews a roadmap for topic and returns the
// terminal loop state. Nothing is persisted except the run summary.
func (s *Service) RunRoadmapLoop(ctx context.Context, topic string) (*domain.RoadmapState, error) {
	state, _, err := s.runRoadmapLoop(ctx, topic)
	return state, err
}

func (s *Service) runRoadmapLoop(ctx context.Context, topic string) (*domain.RoadmapState, string, error) {
	if err := clean(sanitize.DefaultMaxSize, &topic); err != nil {
		return nil, "", err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, "", fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	started := s.now()
	final, err := s.roadmapLoop.Run(ctx, domain.NewLoopState[domain.Roadmap](domain.RoadmapContext{Topic: topic}))
	runID := s.recordRun(ctx, domain.LoopRoadmap, topic, s.roadmapLoop.MaxIterations(), started, final, err)
	return final, runID, err
}

// RunLessonLoop drafts and reviews one lesson and returns the terminal loop
// state. Nothing is persisted except the run summary.
func (s *Service) RunLessonLoop(ctx context.Context, in domain.LessonContext) (*domain.LessonState, error) {
	state, _, err := s.runLessonLoop(ctx, in)
	return state, err
}

func (s *Service) runLessonLoop(ctx context.Context, in domain.LessonContext) (*domain.LessonState, string, error) {
	if err := clean(sanitize.DefaultMaxSize, &in.SectionTitle, &in.ConceptTitle, &in.LessonTitle, &in.LearnedSummary); err != nil {
		return nil, "", err
	}
	if in.LessonTitle == "" {
		return nil, "", fmt.Errorf("%w: lesson title is required", ErrInvalidRequest)
	}
	started := s.now()
	final, err := s.lessonLoop.Run(ctx, domain.NewLoopState[domain.Lesson](in))
	runID := s.recordRun(ctx, domain.LoopLesson, in.LessonTitle, s.lessonLoop.MaxIterations(), started, final, err)
	return final, runID, err
}

func recordState[A, C any](rec *domain.RunRecord, state *domain.LoopState[A, C]) {
	if state == nil {
		return
	}
	rec.Iterations = state.Iteration
	rec.Approved = state.Approved()
	if state.Review != nil {
		rec.Feedback = state.Review.Feedback
	}
}

// recordRun writes a run summary. A failing run log never fails the request.
func (s *Service) recordRun(ctx context.Context, kind domain.LoopKind, subject string, ceiling int, started time.Time, state any, runErr error) string {
	rec := domain.RunRecord{
		ID:            s.newID(),
		Loop:          kind,
		Subject:       subject,
		MaxIterations: ceiling,
		StartedAt:     started,
		FinishedAt:    s.now(),
	}
	switch st := state.(type) {
	case *domain.RoadmapState:
		recordState(&rec, st)
	case *domain.LessonState:
		recordState(&rec, st)
	}
	if runErr != nil {
		rec.Error = runErr.Error()
		var genErr *domain.GenerationError
		var revErr *domain.ReviewError
		switch {
		case errors.As(runErr, &genErr):
			rec.Iterations = genErr.Iteration - 1
		case errors.As(runErr, &revErr):
			rec.Iterations = revErr.Iteration
		}
	}

	if err := s.runs.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.WarnContext(ctx, "failed to record loop run", "loop", string(kind), "run_id", rec.ID, "err", err)
	}
	return rec.ID
}

// GetRun returns the summary of a finished loop run.
func (s *Service) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	return s.runs.Get(ctx, id)
}

// RecentRuns returns up to limit run summaries, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	return s.runs.Recent(ctx, limit)
}
