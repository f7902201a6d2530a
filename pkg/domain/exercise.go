package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ExerciseKind is the wire tag selecting an exercise variant.
type ExerciseKind string

const (
	ExerciseMultipleChoice ExerciseKind = "mcq"
	ExerciseOpenEnded      ExerciseKind = "question"
)

// Exercise is a tagged variant: either MultipleChoice or OpenEnded.
// The unexported method seals the set of implementations to this package.
type Exercise interface {
	Kind() ExerciseKind
	Prompt() string
	isExercise()
}

// MultipleChoice asks the learner to pick one of Options.
type MultipleChoice struct {
	Question     string
	Options      []string
	CorrectIndex int
}

// OpenEnded asks the learner for a free-form answer.
type OpenEnded struct {
	Question string
}

func (MultipleChoice) Kind() ExerciseKind { return ExerciseMultipleChoice }
func (OpenEnded) Kind() ExerciseKind      { return ExerciseOpenEnded }

func (m MultipleChoice) Prompt() string { return m.Question }
func (o OpenEnded) Prompt() string      { return o.Question }

func (MultipleChoice) isExercise() {}
func (OpenEnded) isExercise()      {}

// ValidateExercise checks the invariants of a single exercise.
func ValidateExercise(ex Exercise) error {
	switch e := ex.(type) {
	case MultipleChoice:
		if e.Question == "" {
			return errors.New("multiple choice question is empty")
		}
		if len(e.Options) < 2 {
			return fmt.Errorf("multiple choice needs at least 2 options, got %d", len(e.Options))
		}
		if e.CorrectIndex < 0 || e.CorrectIndex >= len(e.Options) {
			return fmt.Errorf("answer index %d out of range [0,%d)", e.CorrectIndex, len(e.Options))
		}
		return nil
	case OpenEnded:
		if e.Question == "" {
			return errors.New("open question is empty")
		}
		return nil
	case nil:
		return errors.New("exercise is nil")
	default:
		return fmt.Errorf("unsupported exercise type %T", ex)
	}
}

// ExerciseEnvelope is the wire shape of an exercise: a type tag plus a payload.
type ExerciseEnvelope struct {
	Type     ExerciseKind    `json:"type" bson:"type"`
	Exercise ExercisePayload `json:"exercise" bson:"exercise"`
}

// ExercisePayload carries the fields of both variants. AnswerOptions and
// AnswerIndex are only meaningful for multiple choice.
type ExercisePayload struct {
	Question      string   `json:"question" bson:"question"`
	AnswerOptions []string `json:"answer_options,omitempty" bson:"answer_options,omitempty"`
	AnswerIndex   *int     `json:"answer_index,omitempty" bson:"answer_index,omitempty"`
}

// Envelope converts an exercise to its wire shape.
func Envelope(ex Exercise) (ExerciseEnvelope, error) {
	switch e := ex.(type) {
	case MultipleChoice:
		idx := e.CorrectIndex
		return ExerciseEnvelope{
			Type: ExerciseMultipleChoice,
			Exercise: ExercisePayload{
				Question:      e.Question,
				AnswerOptions: append([]string(nil), e.Options...),
				AnswerIndex:   &idx,
			},
		}, nil
	case OpenEnded:
		return ExerciseEnvelope{
			Type:     ExerciseOpenEnded,
			Exercise: ExercisePayload{Question: e.Question},
		}, nil
	default:
		return ExerciseEnvelope{}, fmt.Errorf("unsupported exercise type %T", ex)
	}
}

// Decode converts the wire shape back into a variant.
func (env ExerciseEnvelope) Decode() (Exercise, error) {
	switch env.Type {
	case ExerciseMultipleChoice:
		if env.Exercise.AnswerIndex == nil {
			return nil, errors.New("multiple choice exercise has no answer_index")
		}
		return MultipleChoice{
			Question:     env.Exercise.Question,
			Options:      append([]string(nil), env.Exercise.AnswerOptions...),
			CorrectIndex: *env.Exercise.AnswerIndex,
		}, nil
	case ExerciseOpenEnded:
		return OpenEnded{Question: env.Exercise.Question}, nil
	default:
		return nil, fmt.Errorf("unknown exercise type %q", env.Type)
	}
}

// ExerciseSet is an ordered list of exercises with the tagged JSON encoding.
type ExerciseSet []Exercise

// Envelopes converts every exercise to its wire shape.
func (s ExerciseSet) Envelopes() ([]ExerciseEnvelope, error) {
	out := make([]ExerciseEnvelope, 0, len(s))
	for i, ex := range s {
		env, err := Envelope(ex)
		if err != nil {
			return nil, fmt.Errorf("exercise %d: %w", i, err)
		}
		out = append(out, env)
	}
	return out, nil
}

// ExercisesFromEnvelopes decodes a list of wire exercises.
func ExercisesFromEnvelopes(envs []ExerciseEnvelope) (ExerciseSet, error) {
	out := make(ExerciseSet, 0, len(envs))
	for i, env := range envs {
		ex, err := env.Decode()
		if err != nil {
			return nil, fmt.Errorf("exercise %d: %w", i, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func (s ExerciseSet) MarshalJSON() ([]byte, error) {
	envs, err := s.Envelopes()
	if err != nil {
		return nil, err
	}
	return json.Marshal(envs)
}

func (s *ExerciseSet) UnmarshalJSON(data []byte) error {
	var envs []ExerciseEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}
	set, err := ExercisesFromEnvelopes(envs)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
