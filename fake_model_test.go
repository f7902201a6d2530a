package skillflow_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/skillflow/pkg/domain"
)

// fakeModel is a scripted ports.ContentModel. Reviews are popped from the
// per-loop queues; an empty queue approves.
type fakeModel struct {
	mu sync.Mutex

	roadmapReviews []domain.Review
	lessonReviews  []domain.Review
	plans          []domain.LessonPlan
	verdict        domain.AnswerVerdict

	roadmapErr error
	lessonErr  error
	planErr    error

	roadmapCalls  int
	lessonCalls   int
	revisions     []string
	lessonInputs  []domain.LessonContext
	reviewedTitle []string
	siblings      [][]string
	answers       []string
	planTopics    []string
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		plans: []domain.LessonPlan{
			{Title: "Ownership basics", Objectives: []string{"explain moves"}},
			{Title: "Borrowing", Objectives: []string{"use references"}},
			{Title: "Lifetimes", Objectives: []string{"annotate lifetimes"}},
		},
		verdict: domain.AnswerVerdict{IsCorrect: true, Explanation: "Right."},
	}
}

func (m *fakeModel) GenerateRoadmap(ctx context.Context, topic string, rev *domain.Revision[domain.Roadmap]) (*domain.Roadmap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roadmapErr != nil {
		return nil, m.roadmapErr
	}
	m.roadmapCalls++
	if rev != nil {
		m.revisions = append(m.revisions, rev.Feedback)
	}
	return &domain.Roadmap{
		Topic: topic,
		Sections: []domain.Section{
			{Title: "Foundations", Concepts: []domain.Concept{{Title: "Ownership"}, {Title: "Traits"}}},
			{Title: fmt.Sprintf("Draft %d", m.roadmapCalls), Concepts: []domain.Concept{{Title: "Async"}}},
		},
	}, nil
}

func (m *fakeModel) ReviewRoadmap(ctx context.Context, transcript []domain.Turn) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pop(&m.roadmapReviews), nil
}

func (m *fakeModel) GenerateLesson(ctx context.Context, in domain.LessonContext, rev *domain.Revision[domain.Lesson]) (*domain.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lessonErr != nil {
		return nil, m.lessonErr
	}
	m.lessonCalls++
	m.lessonInputs = append(m.lessonInputs, in)
	if rev != nil {
		m.revisions = append(m.revisions, rev.Feedback)
	}
	return &domain.Lesson{
		Content: fmt.Sprintf("# %s (draft %d)", in.LessonTitle, m.lessonCalls),
		Exercises: domain.ExerciseSet{
			domain.MultipleChoice{Question: "Q?", Options: []string{"a", "b"}, CorrectIndex: 0},
			domain.OpenEnded{Question: "Why?"},
		},
		Summary: "summary",
	}, nil
}

func (m *fakeModel) ReviewLesson(ctx context.Context, lessonTitle string, siblingTitles []string, content string) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviewedTitle = append(m.reviewedTitle, lessonTitle)
	m.siblings = append(m.siblings, siblingTitles)
	return pop(&m.lessonReviews), nil
}

func (m *fakeModel) PlanLessons(ctx context.Context, topic, section, concept string) ([]domain.LessonPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planTopics = append(m.planTopics, topic)
	if m.planErr != nil {
		return nil, m.planErr
	}
	return append([]domain.LessonPlan(nil), m.plans...), nil
}

func (m *fakeModel) CheckAnswer(ctx context.Context, question, answer, lessonContent string) (domain.AnswerVerdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, answer)
	return m.verdict, nil
}

func pop(q *[]domain.Review) domain.Review {
	if len(*q) == 0 {
		return domain.Review{Approved: true}
	}
	r := (*q)[0]
	*q = (*q)[1:]
	return r
}
