package ports

import (
	"context"

	"github.com/aretw0/skillflow/pkg/domain"
)

// RoadmapStore persists roadmaps.
type RoadmapStore interface {
	// SaveRoadmap inserts a roadmap. The roadmap ID must already be set.
	SaveRoadmap(ctx context.Context, roadmap *domain.Roadmap) error

	// GetRoadmap returns domain.ErrNotFound if the roadmap does not exist.
	GetRoadmap(ctx context.Context, id string) (*domain.Roadmap, error)

	// ListRoadmaps returns all roadmaps, oldest first.
	ListRoadmaps(ctx context.Context) ([]domain.Roadmap, error)

	// AttachLessons replaces the lessons listed under a concept of a roadmap.
	AttachLessons(ctx context.Context, roadmapID, sectionID, conceptID string, lessons []domain.LessonRecord) error
}

// LessonStore persists lesson records.
type LessonStore interface {
	// InsertLessons stores new lesson records. IDs must already be set.
	InsertLessons(ctx context.Context, lessons []domain.LessonRecord) error

	// GetLesson returns domain.ErrNotFound if the lesson does not exist.
	GetLesson(ctx context.Context, id string) (*domain.LessonRecord, error)

	// ListLessons returns the lessons of a concept in insertion order.
	ListLessons(ctx context.Context, conceptID string) ([]domain.LessonRecord, error)

	// SaveLessonContent stores generated content on an existing lesson and marks it current.
	SaveLessonContent(ctx context.Context, id string, lesson domain.Lesson, approved bool) error
}

// CurriculumStore is the full persistence surface of the pipeline.
type CurriculumStore interface {
	RoadmapStore
	LessonStore
}

// RunLog keeps summaries of finished loop runs.
type RunLog interface {
	Record(ctx context.Context, rec domain.RunRecord) error

	// Get returns domain.ErrNotFound if no record exists for id.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
