package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/skillflow/pkg/domain"
)

// LessonMarkdown lays out a lesson record as a markdown document: plan,
// content, exercises and summary. Answers are only shown when withAnswers is set.
func LessonMarkdown(rec *domain.LessonRecord, withAnswers bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.Title)
	if rec.Description != "" {
		fmt.Fprintf(&b, "_%s_\n\n", rec.Description)
	}
	if len(rec.Objectives) > 0 {
		b.WriteString("## Learning objectives\n\n")
		for _, o := range rec.Objectives {
			fmt.Fprintf(&b, "- %s\n", o)
		}
		b.WriteString("\n")
	}

	if !rec.Generated() {
		b.WriteString("> This lesson has not been generated yet.\n")
		return b.String()
	}

	b.WriteString(strings.TrimSpace(rec.Lesson.Content))
	b.WriteString("\n\n")

	if len(rec.Lesson.Exercises) > 0 {
		b.WriteString("## Exercises\n\n")
		for i, ex := range rec.Lesson.Exercises {
			writeExercise(&b, i+1, ex, withAnswers)
		}
	}
	if rec.Lesson.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n", rec.Lesson.Summary)
	}
	if !rec.Approved {
		b.WriteString("\n> Not approved by the reviewer.\n")
	}
	return b.String()
}

func writeExercise(b *strings.Builder, n int, ex domain.Exercise, withAnswers bool) {
	fmt.Fprintf(b, "%d. %s\n", n, ex.Prompt())
	if mc, ok := ex.(domain.MultipleChoice); ok {
		for i, opt := range mc.Options {
			mark := " "
			if withAnswers && i == mc.CorrectIndex {
				mark = "x"
			}
			fmt.Fprintf(b, "   - [%s] %s\n", mark, opt)
		}
	}
	b.WriteString("\n")
}

// RoadmapMarkdown lays out the roadmap hierarchy with progress markers.
func RoadmapMarkdown(r *domain.Roadmap) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Topic)
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "## %s %s\n\n", marker(s.Status), s.Title)
		if s.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", s.Description)
		}
		for _, c := range s.Concepts {
			fmt.Fprintf(&b, "- %s **%s**", marker(c.Status), c.Title)
			if c.Description != "" {
				fmt.Fprintf(&b, ": %s", c.Description)
			}
			b.WriteString("\n")
			for _, l := range c.Lessons {
				fmt.Fprintf(&b, "  - %s %s (`%s`)\n", marker(l.Status), l.Title, l.ID)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func marker(s domain.Status) string {
	switch s {
	case domain.StatusCurrent:
		return "▶"
	case domain.StatusLocked:
		return "🔒"
	default:
		return "·"
	}
}
