package runtime

import (
	"context"

	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/ports"
)

// LessonLoop drafts and reviews the content of one lesson.
type LessonLoop = Loop[domain.Lesson, domain.LessonContext]

// NewLessonLoop wires a lesson generator and reviewer into a loop driver.
// The reviewer only sees the lesson title, the titles of sibling lessons and the content.
func NewLessonLoop(gen ports.LessonGenerator, rev ports.LessonReviewer, opts ...Option) *LessonLoop {
	return NewLoop(domain.LoopLesson,
		GeneratorFunc[domain.Lesson, domain.LessonContext](func(ctx context.Context, req GenerateRequest[domain.Lesson, domain.LessonContext]) (*domain.Lesson, error) {
			return gen.GenerateLesson(ctx, req.Context, req.Revision)
		}),
		ReviewerFunc[domain.Lesson, domain.LessonContext](func(ctx context.Context, req ReviewRequest[domain.Lesson, domain.LessonContext]) (domain.Review, error) {
			return rev.ReviewLesson(ctx, req.Context.LessonTitle, req.Context.SiblingTitles, req.Artifact.Content)
		}),
		opts...,
	)
}
