package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/ports"
)

var _ ports.CurriculumStore = (*Store)(nil)

// Store implements ports.CurriculumStore in memory.
// Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	roadmaps  map[string]*domain.Roadmap
	order     []string
	lessons   map[string]*domain.LessonRecord
	byConcept map[string][]string
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		roadmaps:  make(map[string]*domain.Roadmap),
		lessons:   make(map[string]*domain.LessonRecord),
		byConcept: make(map[string][]string),
	}
}

// SaveRoadmap stores a copy of the roadmap.
func (s *Store) SaveRoadmap(ctx context.Context, roadmap *domain.Roadmap) error {
	if roadmap.ID == "" {
		return fmt.Errorf("roadmap id is required")
	}
	cp := cloneRoadmap(roadmap)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.roadmaps[roadmap.ID]; !exists {
		s.order = append(s.order, roadmap.ID)
	}
	s.roadmaps[roadmap.ID] = cp
	return nil
}

// GetRoadmap returns a copy so callers can't mutate the stored roadmap.
func (s *Store) GetRoadmap(ctx context.Context, id string) (*domain.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roadmaps[id]
	if !ok {
		return nil, fmt.Errorf("roadmap %s: %w", id, domain.ErrNotFound)
	}
	return cloneRoadmap(r), nil
}

// ListRoadmaps returns roadmaps in insertion order.
func (s *Store) ListRoadmaps(ctx context.Context) ([]domain.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Roadmap, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *cloneRoadmap(s.roadmaps[id]))
	}
	return out, nil
}

func (s *Store) AttachLessons(ctx context.Context, roadmapID, sectionID, conceptID string, lessons []domain.LessonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roadmaps[roadmapID]
	if !ok {
		return fmt.Errorf("roadmap %s: %w", roadmapID, domain.ErrNotFound)
	}
	_, concept, ok := r.FindConcept(sectionID, conceptID)
	if !ok {
		return fmt.Errorf("concept %s in section %s: %w", conceptID, sectionID, domain.ErrNotFound)
	}
	concept.Lessons = cloneLessons(lessons)
	return nil
}

func (s *Store) InsertLessons(ctx context.Context, lessons []domain.LessonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range lessons {
		l := cloneLesson(lessons[i])
		if l.ID == "" {
			return fmt.Errorf("lesson id is required")
		}
		if _, exists := s.lessons[l.ID]; !exists {
			s.byConcept[l.ConceptID] = append(s.byConcept[l.ConceptID], l.ID)
		}
		s.lessons[l.ID] = &l
	}
	return nil
}

func (s *Store) GetLesson(ctx context.Context, id string) (*domain.LessonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lessons[id]
	if !ok {
		return nil, fmt.Errorf("lesson %s: %w", id, domain.ErrNotFound)
	}
	cp := cloneLesson(*l)
	return &cp, nil
}

func (s *Store) ListLessons(ctx context.Context, conceptID string) ([]domain.LessonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byConcept[conceptID]
	out := make([]domain.LessonRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneLesson(*s.lessons[id]))
	}
	return out, nil
}

func (s *Store) SaveLessonContent(ctx context.Context, id string, lesson domain.Lesson, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lessons[id]
	if !ok {
		return fmt.Errorf("lesson %s: %w", id, domain.ErrNotFound)
	}
	content := cloneContent(lesson)
	l.Lesson = &content
	l.Approved = approved
	l.Status = domain.StatusCurrent
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneRoadmap(r *domain.Roadmap) *domain.Roadmap {
	cp := *r
	cp.Sections = make([]domain.Section, len(r.Sections))
	for i, sec := range r.Sections {
		sec.Concepts = append([]domain.Concept(nil), sec.Concepts...)
		for j := range sec.Concepts {
			sec.Concepts[j].Lessons = cloneLessons(sec.Concepts[j].Lessons)
		}
		cp.Sections[i] = sec
	}
	return &cp
}

func cloneLessons(in []domain.LessonRecord) []domain.LessonRecord {
	if in == nil {
		return nil
	}
	out := make([]domain.LessonRecord, len(in))
	for i := range in {
		out[i] = cloneLesson(in[i])
	}
	return out
}

func cloneLesson(l domain.LessonRecord) domain.LessonRecord {
	l.Objectives = append([]string(nil), l.Objectives...)
	if l.Lesson != nil {
		content := cloneContent(*l.Lesson)
		l.Lesson = &content
	}
	return l
}

func cloneContent(l domain.Lesson) domain.Lesson {
	exercises := make(domain.ExerciseSet, len(l.Exercises))
	for i, ex := range l.Exercises {
		if mc, ok := ex.(domain.MultipleChoice); ok {
			mc.Options = append([]string(nil), mc.Options...)
			ex = mc
		}
		exercises[i] = ex
	}
	l.Exercises = exercises
	return l
}
