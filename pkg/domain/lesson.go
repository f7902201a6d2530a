package domain

import (
	"errors"
	"fmt"
	"time"
)

// LessonPlan is a lesson outline produced by the planner, before any content exists.
type LessonPlan struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Objectives  []string `json:"learning_objectives" validate:"required,min=1"`
}

// Lesson is generated lesson content.
type Lesson struct {
	Content   string      `json:"content" validate:"required"`
	Exercises ExerciseSet `json:"exercises"`
	Summary   string      `json:"summary"`
	IsFinal   bool        `json:"is_final"`
}

// Validate checks the parts of a lesson struct tags cannot express.
func (l *Lesson) Validate() error {
	if l.Content == "" {
		return errors.New("lesson content is empty")
	}
	for i, ex := range l.Exercises {
		if err := ValidateExercise(ex); err != nil {
			return fmt.Errorf("exercise %d: %w", i, err)
		}
	}
	return nil
}

// LessonRecord is a persisted lesson: its plan, progress and, once generated, its content.
type LessonRecord struct {
	ID        string `json:"id"`
	ConceptID string `json:"conceptId"`
	LessonPlan
	Status    Status    `json:"status"`
	Lesson    *Lesson   `json:"lesson,omitempty"`
	Approved  bool      `json:"approved,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Generated reports whether content has been stored for the lesson.
func (r *LessonRecord) Generated() bool {
	return r.Lesson != nil
}
