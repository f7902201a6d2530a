package ports

import (
	"context"

	"github.com/aretw0/skillflow/pkg/domain"
)

// RoadmapGenerator drafts a roadmap for a topic.
// rev is nil on the first attempt and carries the rejected draft and its feedback afterwards.
type RoadmapGenerator interface {
	GenerateRoadmap(ctx context.Context, topic string, rev *domain.Revision[domain.Roadmap]) (*domain.Roadmap, error)
}

// RoadmapReviewer judges a roadmap given the generator/reviewer conversation so far.
type RoadmapReviewer interface {
	ReviewRoadmap(ctx context.Context, transcript []domain.Turn) (domain.Review, error)
}

// LessonGenerator writes one lesson for a concept of a roadmap.
type LessonGenerator interface {
	GenerateLesson(ctx context.Context, in domain.LessonContext, rev *domain.Revision[domain.Lesson]) (*domain.Lesson, error)
}

// LessonReviewer judges lesson content, checking overlap against sibling lessons.
type LessonReviewer interface {
	ReviewLesson(ctx context.Context, lessonTitle string, siblingTitles []string, content string) (domain.Review, error)
}

// LessonPlanner outlines the lessons that cover a concept.
type LessonPlanner interface {
	PlanLessons(ctx context.Context, topic, section, concept string) ([]domain.LessonPlan, error)
}

// AnswerChecker evaluates a learner answer against the lesson it belongs to.
type AnswerChecker interface {
	CheckAnswer(ctx context.Context, question, answer, lessonContent string) (domain.AnswerVerdict, error)
}

// ContentModel bundles every model-backed capability the pipeline needs.
type ContentModel interface {
	RoadmapGenerator
	RoadmapReviewer
	LessonGenerator
	LessonReviewer
	LessonPlanner
	AnswerChecker
}
