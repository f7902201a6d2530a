package runtime_test

import (
	"testing"

	"github.com/aretw0/skillflow/internal/runtime"
	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

type draft struct {
	Text string `json:"text"`
}

type state = domain.LoopState[draft, string]

func TestNextStep_Rules(t *testing.T) {
	art := &draft{Text: "v1"}

	tests := []struct {
		name  string
		state state
		max   int
		want  domain.Step
	}{
		{
			name:  "fresh state generates",
			state: state{},
			max:   3,
			want:  domain.StepGenerate,
		},
		{
			name:  "ceiling reached stops",
			state: state{Artifact: art, Iteration: 1, LastStep: domain.LastStepGenerated},
			max:   1,
			want:  domain.StepStop,
		},
		{
			name:  "ceiling beats missing review",
			state: state{Artifact: art, Iteration: 5, LastStep: domain.LastStepGenerated},
			max:   3,
			want:  domain.StepStop,
		},
		{
			name:  "approved stops",
			state: state{Artifact: art, Iteration: 1, Review: &domain.Review{Approved: true}, LastStep: domain.LastStepReviewed},
			max:   3,
			want:  domain.StepStop,
		},
		{
			name:  "fresh artifact is reviewed",
			state: state{Artifact: art, Iteration: 1, LastStep: domain.LastStepGenerated},
			max:   3,
			want:  domain.StepReview,
		},
		{
			name:  "rejected review regenerates",
			state: state{Artifact: art, Iteration: 1, Review: &domain.Review{Feedback: "too short"}, LastStep: domain.LastStepReviewed},
			max:   3,
			want:  domain.StepGenerate,
		},
		{
			name:  "stale rejection does not skip review",
			state: state{Artifact: art, Iteration: 2, Review: &domain.Review{Feedback: "too short"}, LastStep: domain.LastStepGenerated},
			max:   3,
			want:  domain.StepReview,
		},
		{
			name:  "artifact without last step falls through to generate",
			state: state{Artifact: art},
			max:   3,
			want:  domain.StepGenerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state
			assert.Equal(t, tt.want, runtime.NextStep(&s, tt.max))
		})
	}
}

func TestNextStep_DoesNotMutate(t *testing.T) {
	s := state{
		Artifact:  &draft{Text: "v1"},
		Iteration: 1,
		Review:    &domain.Review{Feedback: "again"},
		LastStep:  domain.LastStepReviewed,
	}
	before := *s.Review

	first := runtime.NextStep(&s, 3)
	second := runtime.NextStep(&s, 3)

	assert.Equal(t, first, second)
	assert.Equal(t, before, *s.Review)
	assert.Equal(t, 1, s.Iteration)
	assert.Equal(t, domain.LastStepReviewed, s.LastStep)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "generate", domain.StepGenerate.String())
	assert.Equal(t, "review", domain.StepReview.String())
	assert.Equal(t, "stop", domain.StepStop.String())
	assert.Equal(t, "unknown", domain.Step(42).String())
}
