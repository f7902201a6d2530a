package openai

import (
	"fmt"

	"github.com/aretw0/skillflow/pkg/domain"
)

// Wire shapes the model is asked to produce. They mirror the domain types
// without ids, statuses or timestamps, which the service assigns.

type roadmapDraft struct {
	Topic    string         `json:"topic" description:"Main title of the roadmap"`
	Sections []sectionDraft `json:"sections"`
}

type sectionDraft struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Concepts    []conceptDraft `json:"concepts"`
}

type conceptDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type reviewDraft struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

type lessonDraft struct {
	Content   string          `json:"content" description:"Lesson content in Markdown"`
	Exercises []exerciseDraft `json:"exercises"`
	Summary   string          `json:"summary"`
	IsFinal   bool            `json:"is_final"`
}

type exerciseDraft struct {
	Type     string               `json:"type" enum:"mcq,question"`
	Exercise exercisePayloadDraft `json:"exercise"`
}

type exercisePayloadDraft struct {
	Question      string   `json:"question"`
	AnswerOptions []string `json:"answer_options,omitempty"`
	AnswerIndex   *int     `json:"answer_index,omitempty"`
}

type planDraft struct {
	Lessons []planItemDraft `json:"lessons"`
}

type planItemDraft struct {
	Title       string   `json:"title" description:"Clear, descriptive lesson title"`
	Description string   `json:"description" description:"One sentence about the lesson content"`
	Objectives  []string `json:"learning_objectives" description:"Specific things the learner will learn"`
}

type verdictDraft struct {
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"additional_explanation"`
}

func (d roadmapDraft) toDomain() *domain.Roadmap {
	r := &domain.Roadmap{Topic: d.Topic, Sections: make([]domain.Section, 0, len(d.Sections))}
	for _, s := range d.Sections {
		sec := domain.Section{Title: s.Title, Description: s.Description, Concepts: make([]domain.Concept, 0, len(s.Concepts))}
		for _, c := range s.Concepts {
			sec.Concepts = append(sec.Concepts, domain.Concept{Title: c.Title, Description: c.Description})
		}
		r.Sections = append(r.Sections, sec)
	}
	return r
}

func roadmapDraftOf(r *domain.Roadmap) roadmapDraft {
	d := roadmapDraft{Topic: r.Topic, Sections: make([]sectionDraft, 0, len(r.Sections))}
	for _, s := range r.Sections {
		sec := sectionDraft{Title: s.Title, Description: s.Description, Concepts: make([]conceptDraft, 0, len(s.Concepts))}
		for _, c := range s.Concepts {
			sec.Concepts = append(sec.Concepts, conceptDraft{Title: c.Title, Description: c.Description})
		}
		d.Sections = append(d.Sections, sec)
	}
	return d
}

func (d lessonDraft) toDomain() (*domain.Lesson, error) {
	envs := make([]domain.ExerciseEnvelope, 0, len(d.Exercises))
	for _, e := range d.Exercises {
		envs = append(envs, domain.ExerciseEnvelope{
			Type: domain.ExerciseKind(e.Type),
			Exercise: domain.ExercisePayload{
				Question:      e.Exercise.Question,
				AnswerOptions: e.Exercise.AnswerOptions,
				AnswerIndex:   e.Exercise.AnswerIndex,
			},
		})
	}
	exercises, err := domain.ExercisesFromEnvelopes(envs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArtifact, err)
	}
	lesson := &domain.Lesson{
		Content:   d.Content,
		Exercises: exercises,
		Summary:   d.Summary,
		IsFinal:   d.IsFinal,
	}
	if err := lesson.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArtifact, err)
	}
	return lesson, nil
}

func (d planDraft) toDomain() []domain.LessonPlan {
	out := make([]domain.LessonPlan, 0, len(d.Lessons))
	for _, l := range d.Lessons {
		out = append(out, domain.LessonPlan{Title: l.Title, Description: l.Description, Objectives: l.Objectives})
	}
	return out
}
