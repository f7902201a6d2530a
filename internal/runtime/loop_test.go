package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/skillflow/internal/runtime"
	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAgents records every call and answers reviews from a fixed script.
type scriptedAgents struct {
	mu        sync.Mutex
	verdicts  []domain.Review
	genErr    error
	revErr    error
	generated []runtime.GenerateRequest[draft, string]
	reviewed  []runtime.ReviewRequest[draft, string]
	steps     []domain.Step
}

func (s *scriptedAgents) Generate(_ context.Context, req runtime.GenerateRequest[draft, string]) (*draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, domain.StepGenerate)
	if s.genErr != nil {
		return nil, s.genErr
	}
	s.generated = append(s.generated, req)
	return &draft{Text: fmt.Sprintf("%s v%d", req.Context, len(s.generated))}, nil
}

func (s *scriptedAgents) Review(_ context.Context, req runtime.ReviewRequest[draft, string]) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, domain.StepReview)
	if s.revErr != nil {
		return domain.Review{}, s.revErr
	}
	s.reviewed = append(s.reviewed, req)
	if len(s.verdicts) == 0 {
		return domain.Review{Feedback: "not yet"}, nil
	}
	v := s.verdicts[0]
	s.verdicts = s.verdicts[1:]
	return v, nil
}

func newLoop(a *scriptedAgents, max int, opts ...runtime.Option) *runtime.Loop[draft, string] {
	opts = append(opts, runtime.WithMaxIterations(max))
	return runtime.NewLoop[draft, string]("test", a, a, opts...)
}

func TestLoop_ScenarioA_SingleGenerationHaltsUnreviewed(t *testing.T) {
	agents := &scriptedAgents{}
	loop := newLoop(agents, 1)

	final, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	require.NoError(t, err)

	assert.Equal(t, []domain.Step{domain.StepGenerate}, agents.steps)
	assert.Equal(t, 1, final.Iteration)
	assert.Equal(t, domain.LastStepGenerated, final.LastStep)
	assert.Nil(t, final.Review)
	require.NotNil(t, final.Artifact)
	assert.False(t, final.Approved())
}

func TestLoop_ScenarioB_RejectionRegeneratesUntilCeiling(t *testing.T) {
	agents := &scriptedAgents{verdicts: []domain.Review{{Approved: false, Feedback: "add generics"}}}
	loop := newLoop(agents, 2)

	final, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	require.NoError(t, err)

	assert.Equal(t, []domain.Step{domain.StepGenerate, domain.StepReview, domain.StepGenerate}, agents.steps)
	assert.Equal(t, 2, final.Iteration)
	assert.Equal(t, "go v2", final.Artifact.Text)
	assert.False(t, final.Approved())
}

func TestLoop_ScenarioC_ApprovalShortCircuits(t *testing.T) {
	agents := &scriptedAgents{verdicts: []domain.Review{{Approved: true}}}
	loop := newLoop(agents, 5)

	final, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	require.NoError(t, err)

	assert.Equal(t, []domain.Step{domain.StepGenerate, domain.StepReview}, agents.steps)
	assert.Equal(t, 1, final.Iteration)
	assert.True(t, final.Approved())
}

func TestLoop_FeedbackThreading(t *testing.T) {
	agents := &scriptedAgents{verdicts: []domain.Review{
		{Feedback: "cover channels"},
		{Feedback: ""},
	}}
	loop := newLoop(agents, 3)

	_, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	require.NoError(t, err)
	require.Len(t, agents.generated, 3)

	assert.Nil(t, agents.generated[0].Revision, "first attempt has nothing to revise")

	rev := agents.generated[1].Revision
	require.NotNil(t, rev)
	assert.Equal(t, "cover channels", rev.Feedback)
	assert.Equal(t, "go v1", rev.Prior.Text)

	assert.Nil(t, agents.generated[2].Revision, "empty feedback is not threaded")
}

func TestLoop_Transcript(t *testing.T) {
	agents := &scriptedAgents{verdicts: []domain.Review{{Feedback: "shorter"}, {Approved: true}}}
	loop := newLoop(agents, 3)

	final, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	require.NoError(t, err)

	roles := make([]domain.Role, 0, len(final.Transcript))
	for _, turn := range final.Transcript {
		roles = append(roles, turn.Role)
	}
	// The approving review carries no feedback and adds no turn.
	assert.Equal(t, []domain.Role{domain.RoleGenerator, domain.RoleReviewer, domain.RoleGenerator}, roles)
	assert.Contains(t, final.Transcript[0].Content, "go v1")
	assert.Contains(t, final.Transcript[1].Content, "shorter")

	// The second review saw the full conversation up to the second draft.
	require.Len(t, agents.reviewed, 2)
	assert.Len(t, agents.reviewed[1].Transcript, 3)
}

func TestLoop_GenerationErrorPropagates(t *testing.T) {
	boom := errors.New("model unavailable")
	agents := &scriptedAgents{genErr: boom}
	loop := newLoop(agents, 3)

	final, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	assert.Nil(t, final)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 1, genErr.Iteration)
	assert.Equal(t, domain.LoopKind("test"), genErr.Loop)
	assert.Len(t, agents.steps, 1, "failures are not retried")
}

func TestLoop_NilArtifactIsInvalid(t *testing.T) {
	gen := runtime.GeneratorFunc[draft, string](func(context.Context, runtime.GenerateRequest[draft, string]) (*draft, error) {
		return nil, nil
	})
	loop := runtime.NewLoop[draft, string]("test", gen, &scriptedAgents{})

	_, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	var genErr *domain.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestLoop_ReviewErrorPropagates(t *testing.T) {
	boom := errors.New("reviewer timeout")
	agents := &scriptedAgents{revErr: boom}
	loop := newLoop(agents, 3)

	_, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var revErr *domain.ReviewError
	require.ErrorAs(t, err, &revErr)
	assert.Equal(t, 1, revErr.Iteration)
	assert.Equal(t, []domain.Step{domain.StepGenerate, domain.StepReview}, agents.steps)
}

func TestLoop_InitialStateUntouched(t *testing.T) {
	agents := &scriptedAgents{verdicts: []domain.Review{{Feedback: "again"}}}
	loop := newLoop(agents, 2)

	initial := domain.NewLoopState[draft]("go")
	final, err := loop.Run(context.Background(), initial)
	require.NoError(t, err)

	assert.Equal(t, 2, final.Iteration)
	assert.Equal(t, 0, initial.Iteration)
	assert.Nil(t, initial.Artifact)
	assert.Nil(t, initial.Review)
	assert.Empty(t, initial.Transcript)
}

func TestLoop_CeilingDefaults(t *testing.T) {
	agents := &scriptedAgents{}
	assert.Equal(t, runtime.DefaultMaxIterations, runtime.NewLoop[draft, string]("test", agents, agents).MaxIterations())
	assert.Equal(t, runtime.DefaultMaxIterations, newLoop(agents, 0).MaxIterations())
	assert.Equal(t, runtime.DefaultMaxIterations, newLoop(agents, -3).MaxIterations())
	assert.Equal(t, 4, newLoop(agents, 4).MaxIterations())
}

func TestLoop_RequiresInputs(t *testing.T) {
	agents := &scriptedAgents{}

	_, err := newLoop(agents, 1).Run(context.Background(), nil)
	assert.Error(t, err)

	_, err = runtime.NewLoop[draft, string]("test", nil, agents).Run(context.Background(), domain.NewLoopState[draft]("go"))
	assert.Error(t, err)
}

func TestLoop_Hooks(t *testing.T) {
	agents := &scriptedAgents{verdicts: []domain.Review{{Feedback: "again"}, {Approved: true}}}

	var starts, ends []domain.Step
	var loopEnd *domain.LoopEvent
	hooks := domain.LoopHooks{
		OnStepStart: func(_ context.Context, e *domain.StepEvent) {
			starts = append(starts, e.Step)
		},
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) {
			assert.NoError(t, e.Err)
			ends = append(ends, e.Step)
		},
		OnLoopEnd: func(_ context.Context, e *domain.LoopEvent) {
			loopEnd = e
		},
	}
	loop := newLoop(agents, 3, runtime.WithHooks(hooks))

	_, err := loop.Run(context.Background(), domain.NewLoopState[draft]("go"))
	require.NoError(t, err)

	want := []domain.Step{domain.StepGenerate, domain.StepReview, domain.StepGenerate, domain.StepReview}
	assert.Equal(t, want, starts)
	assert.Equal(t, want, ends)
	require.NotNil(t, loopEnd)
	assert.Equal(t, domain.EventLoopEnd, loopEnd.Type)
	assert.Equal(t, 2, loopEnd.Iterations)
	assert.Equal(t, 2, loopEnd.Reviews)
	assert.True(t, loopEnd.Approved)
}

func TestLoop_HooksReportFailure(t *testing.T) {
	boom := errors.New("boom")
	agents := &scriptedAgents{genErr: boom}

	var failed error
	loopEnded := false
	hooks := domain.LoopHooks{
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) { failed = e.Err },
		OnLoopEnd: func(context.Context, *domain.LoopEvent) { loopEnded = true },
	}
	_, err := newLoop(agents, 1, runtime.WithHooks(hooks)).Run(context.Background(), domain.NewLoopState[draft]("go"))
	require.Error(t, err)

	assert.ErrorIs(t, failed, boom)
	assert.False(t, loopEnded, "aborted runs do not report a loop end")
}

func TestLoop_ConcurrentRunsAreIndependent(t *testing.T) {
	gen := runtime.GeneratorFunc[draft, string](func(_ context.Context, req runtime.GenerateRequest[draft, string]) (*draft, error) {
		return &draft{Text: req.Context}, nil
	})
	rev := runtime.ReviewerFunc[draft, string](func(_ context.Context, req runtime.ReviewRequest[draft, string]) (domain.Review, error) {
		return domain.Review{Approved: true}, nil
	})
	loop := runtime.NewLoop[draft, string]("test", gen, rev, runtime.WithMaxIterations(3))

	var wg sync.WaitGroup
	results := make([]*domain.LoopState[draft, string], 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			final, err := loop.Run(context.Background(), domain.NewLoopState[draft](fmt.Sprintf("topic-%d", i)))
			assert.NoError(t, err)
			results[i] = final
		}(i)
	}
	wg.Wait()

	for i, final := range results {
		require.NotNil(t, final)
		assert.Equal(t, fmt.Sprintf("topic-%d", i), final.Artifact.Text)
		assert.Equal(t, 1, final.Iteration)
		assert.True(t, final.Approved())
	}
}
