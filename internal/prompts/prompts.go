// Package prompts holds the system prompts and request templates sent to the language model.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates
var files embed.FS

// System prompt names.
const (
	RoadmapGenerator = "roadmap_generator"
	RoadmapReviewer  = "roadmap_reviewer"
	LessonGenerator  = "lesson_generator"
	LessonReviewer   = "lesson_reviewer"
	LessonPlanner    = "lesson_planner"
	AnswerChecker    = "answer_checker"
)

var requests = template.Must(template.ParseFS(files, "templates/*.tmpl"))

// System returns the system prompt with the given name.
func System(name string) (string, error) {
	data, err := files.ReadFile("templates/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("unknown prompt %q: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// MustSystem is System for names known at compile time.
func MustSystem(name string) string {
	s, err := System(name)
	if err != nil {
		panic(err)
	}
	return s
}

// LessonRequest is the data of the lesson generator user message.
type LessonRequest struct {
	RoadmapJSON    string
	SectionTitle   string
	ConceptTitle   string
	LessonTitle    string
	Objectives     []string
	LearnedSummary string
}

// LessonReviewRequest is the data of the lesson reviewer user message.
type LessonReviewRequest struct {
	LessonTitle   string
	SiblingTitles []string
	Content       string
}

// PlanRequest is the data of the lesson planner user message.
type PlanRequest struct {
	Topic   string
	Section string
	Concept string
}

// AnswerRequest is the data of the answer checker user message.
type AnswerRequest struct {
	Question      string
	Answer        string
	LessonContent string
}

// RevisionRequest asks the generator to rework its previous draft.
type RevisionRequest struct {
	Artifact string // "roadmap" or "lesson"
	Feedback string
}

func (r LessonRequest) Render() (string, error)       { return render("lesson_request.tmpl", r) }
func (r LessonReviewRequest) Render() (string, error) { return render("lesson_review_request.tmpl", r) }
func (r PlanRequest) Render() (string, error)         { return render("plan_request.tmpl", r) }
func (r AnswerRequest) Render() (string, error)       { return render("answer_request.tmpl", r) }
func (r RevisionRequest) Render() (string, error)     { return render("revision_request.tmpl", r) }

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := requests.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
