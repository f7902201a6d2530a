package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCurriculumStoreContract runs a suite of tests to verify that a CurriculumStore
// implementation adheres to the defined interface contract.
func RunCurriculumStoreContract(t *testing.T, store CurriculumStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000000")
	roadmapID := "contract-roadmap-" + suffix
	conceptID := "contract-concept-" + suffix

	roadmap := &domain.Roadmap{
		ID:    roadmapID,
		Topic: "Go concurrency",
		Sections: []domain.Section{
			{
				ID:     "s1-" + suffix,
				Title:  "Goroutines",
				Status: domain.StatusCurrent,
				Concepts: []domain.Concept{
					{ID: conceptID, Title: "Scheduling", Status: domain.StatusCurrent},
				},
			},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	t.Run("Save and Get Roadmap", func(t *testing.T) {
		require.NoError(t, store.SaveRoadmap(ctx, roadmap))

		loaded, err := store.GetRoadmap(ctx, roadmapID)
		require.NoError(t, err)
		assert.Equal(t, roadmap.Topic, loaded.Topic)
		require.Len(t, loaded.Sections, 1)
		assert.Equal(t, conceptID, loaded.Sections[0].Concepts[0].ID)
	})

	t.Run("Get Missing Roadmap", func(t *testing.T) {
		_, err := store.GetRoadmap(ctx, "missing-"+roadmapID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("List Roadmaps", func(t *testing.T) {
		list, err := store.ListRoadmaps(ctx)
		require.NoError(t, err)
		found := false
		for _, r := range list {
			if r.ID == roadmapID {
				found = true
			}
		}
		assert.True(t, found, "saved roadmap should be listed")
	})

	lessons := make([]domain.LessonRecord, 3)
	for i := range lessons {
		status := domain.StatusLocked
		if i == 0 {
			status = domain.StatusCurrent
		}
		lessons[i] = domain.LessonRecord{
			ID:        fmt.Sprintf("contract-lesson-%d-%s", i, suffix),
			ConceptID: conceptID,
			LessonPlan: domain.LessonPlan{
				Title:      fmt.Sprintf("Lesson %d", i),
				Objectives: []string{"understand"},
			},
			Status: status,
		}
	}

	t.Run("Insert and List Lessons", func(t *testing.T) {
		require.NoError(t, store.InsertLessons(ctx, lessons))

		list, err := store.ListLessons(ctx, conceptID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, l := range list {
			assert.Equal(t, lessons[i].Title, l.Title)
		}

		other, err := store.ListLessons(ctx, "other-"+conceptID)
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("Attach Lessons", func(t *testing.T) {
		err := store.AttachLessons(ctx, roadmapID, roadmap.Sections[0].ID, conceptID, lessons)
		require.NoError(t, err)

		loaded, err := store.GetRoadmap(ctx, roadmapID)
		require.NoError(t, err)
		assert.Len(t, loaded.Sections[0].Concepts[0].Lessons, 3)

		err = store.AttachLessons(ctx, "missing-"+roadmapID, roadmap.Sections[0].ID, conceptID, lessons)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Save Lesson Content", func(t *testing.T) {
		content := domain.Lesson{
			Content: "# Scheduling",
			Exercises: domain.ExerciseSet{
				domain.MultipleChoice{Question: "Who schedules goroutines?", Options: []string{"OS", "Go runtime"}, CorrectIndex: 1},
				domain.OpenEnded{Question: "Explain GOMAXPROCS."},
			},
			Summary: "The learner knows the scheduler basics.",
		}
		require.NoError(t, store.SaveLessonContent(ctx, lessons[1].ID, content, true))

		loaded, err := store.GetLesson(ctx, lessons[1].ID)
		require.NoError(t, err)
		require.True(t, loaded.Generated())
		assert.Equal(t, content.Content, loaded.Lesson.Content)
		assert.True(t, loaded.Approved)
		assert.Equal(t, domain.StatusCurrent, loaded.Status)
		require.Len(t, loaded.Lesson.Exercises, 2)
		assert.Equal(t, domain.ExerciseMultipleChoice, loaded.Lesson.Exercises[0].Kind())

		err = store.SaveLessonContent(ctx, "missing-"+lessons[1].ID, content, false)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Get Missing Lesson", func(t *testing.T) {
		_, err := store.GetLesson(ctx, "missing-lesson-"+suffix)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// RunRunLogContract verifies that a RunLog implementation adheres to the interface contract.
func RunRunLogContract(t *testing.T, log RunLog) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000000")
	base := time.Now().UTC().Truncate(time.Second)

	first := domain.RunRecord{
		ID:            "run-a-" + suffix,
		Loop:          domain.LoopRoadmap,
		Subject:       "Rust",
		Iterations:    1,
		MaxIterations: 1,
		StartedAt:     base,
		FinishedAt:    base.Add(time.Second),
	}
	second := domain.RunRecord{
		ID:            "run-b-" + suffix,
		Loop:          domain.LoopLesson,
		Subject:       "Ownership",
		Iterations:    2,
		MaxIterations: 3,
		Approved:      true,
		StartedAt:     base.Add(2 * time.Second),
		FinishedAt:    base.Add(3 * time.Second),
	}

	t.Run("Record and Get", func(t *testing.T) {
		require.NoError(t, log.Record(ctx, first))
		require.NoError(t, log.Record(ctx, second))

		got, err := log.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, second.Subject, got.Subject)
		assert.Equal(t, second.Iterations, got.Iterations)
		assert.True(t, got.Approved)
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := log.Get(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Recent Newest First", func(t *testing.T) {
		recent, err := log.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, second.ID, recent[0].ID)
		assert.Equal(t, first.ID, recent[1].ID)
	})
}
