package skillflow

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/aretw0/skillflow/internal/sanitize"
	"github.com/aretw0/skillflow/pkg/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidRequest marks a request that failed validation.
var ErrInvalidRequest = errors.New("invalid request")

// RoadmapResult is the outcome of GenerateRoadmap.
type RoadmapResult struct {
	Roadmap  *domain.Roadmap
	Lessons  []domain.LessonRecord // Planned lessons of the first concept
	Approved bool
	RunID    string
}

// PlanRequest asks for the lessons of one concept of a stored roadmap.
type PlanRequest struct {
	RoadmapID    string `validate:"required"`
	SectionID    string `validate:"required"`
	ConceptID    string `validate:"required"`
	Topic        string `validate:"required"`
	SectionTitle string `validate:"required"`
	ConceptTitle string `validate:"required"`
}

// LessonRequest asks for the content of one planned lesson.
type LessonRequest struct {
	RoadmapID      string `validate:"required"`
	LessonID       string `validate:"required"`
	ConceptID      string `validate:"required"`
	SectionTitle   string `validate:"required"`
	ConceptTitle   string `validate:"required"`
	LearnedSummary string
}

// LessonResult is the outcome of GenerateLesson.
type LessonResult struct {
	Lesson   *domain.LessonRecord
	Approved bool
	RunID    string
}

// AnswerRequest is a learner answer to check.
type AnswerRequest struct {
	Question      string `validate:"required"`
	Answer        string `validate:"required"`
	LessonContent string `validate:"required"`
}

func check(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// clean sanitizes free text fields in place. Oversized or malformed text is an invalid request.
func clean(limit int, fields ...*string) error {
	for _, f := range fields {
		v, err := sanitize.Input(*f, limit)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		*f = v
	}
	return nil
}
