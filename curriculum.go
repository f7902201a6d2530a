package skillflow

import (
	"context"
	"fmt"

	"github.com/aretw0/skillflow/internal/sanitize"
	"github.com/aretw0/skillflow/pkg/domain"
)

// GenerateRoadmap runs the roadmap loop for topic, then plans the lessons of
// the first concept and stores both. Nothing is stored if the loop or the
// planner fails. The roadmap is stored even when the reviewer never approved
// it; RoadmapResult.Approved tells the two apart.
func (s *Service) GenerateRoadmap(ctx context.Context, topic string) (*RoadmapResult, error) {
	state, runID, err := s.runRoadmapLoop(ctx, topic)
	if err != nil {
		return nil, err
	}
	if state.Artifact == nil {
		return nil, domain.ErrNoArtifact
	}

	roadmap := s.prepareRoadmap(state.Artifact, state.Context.Topic)
	if len(roadmap.Sections) == 0 || len(roadmap.Sections[0].Concepts) == 0 {
		return nil, fmt.Errorf("%w: roadmap has no concepts", domain.ErrInvalidArtifact)
	}
	section := &roadmap.Sections[0]
	concept := &section.Concepts[0]

	plans, err := s.model.PlanLessons(ctx, roadmap.Topic, section.Title, concept.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to plan lessons for %q: %w", concept.Title, err)
	}
	lessons := s.lessonRecords(concept.ID, plans)
	if err := s.store.InsertLessons(ctx, lessons); err != nil {
		return nil, fmt.Errorf("failed to save lessons: %w", err)
	}
	concept.Lessons = lessons

	if err := s.store.SaveRoadmap(ctx, roadmap); err != nil {
		return nil, fmt.Errorf("failed to save roadmap: %w", err)
	}
	s.logger.InfoContext(ctx, "roadmap generated",
		"roadmap_id", roadmap.ID,
		"topic", roadmap.Topic,
		"sections", len(roadmap.Sections),
		"approved", state.Approved(),
		"run_id", runID,
	)
	return &RoadmapResult{Roadmap: roadmap, Lessons: lessons, Approved: state.Approved(), RunID: runID}, nil
}

// prepareRoadmap copies a generated roadmap and assigns ids and statuses:
// only the first section and its first concept start unlocked.
func (s *Service) prepareRoadmap(draft *domain.Roadmap, topic string) *domain.Roadmap {
	roadmap := &domain.Roadmap{
		ID:        s.newID(),
		Topic:     draft.Topic,
		Sections:  make([]domain.Section, len(draft.Sections)),
		CreatedAt: s.now(),
	}
	if roadmap.Topic == "" {
		roadmap.Topic = topic
	}
	for i, sec := range draft.Sections {
		sec.ID = s.newID()
		sec.Status = domain.StatusLocked
		if i == 0 {
			sec.Status = domain.StatusCurrent
		}
		sec.Concepts = append([]domain.Concept(nil), sec.Concepts...)
		for j := range sec.Concepts {
			c := &sec.Concepts[j]
			c.ID = s.newID()
			c.Lessons = nil
			c.Status = domain.StatusLocked
			if i == 0 && j == 0 {
				c.Status = domain.StatusCurrent
			}
		}
		roadmap.Sections[i] = sec
	}
	return roadmap
}

// lessonRecords turns a plan into lesson records; the first one starts unlocked.
func (s *Service) lessonRecords(conceptID string, plans []domain.LessonPlan) []domain.LessonRecord {
	now := s.now()
	out := make([]domain.LessonRecord, len(plans))
	for i, p := range plans {
		status := domain.StatusLocked
		if i == 0 {
			status = domain.StatusCurrent
		}
		out[i] = domain.LessonRecord{
			ID:         s.newID(),
			ConceptID:  conceptID,
			LessonPlan: p,
			Status:     status,
			CreatedAt:  now,
		}
	}
	return out
}

// ListRoadmaps returns every stored roadmap, oldest first.
func (s *Service) ListRoadmaps(ctx context.Context) ([]domain.Roadmap, error) {
	return s.store.ListRoadmaps(ctx)
}

// GetRoadmap returns domain.ErrNotFound if the roadmap does not exist.
func (s *Service) GetRoadmap(ctx context.Context, id string) (*domain.Roadmap, error) {
	return s.store.GetRoadmap(ctx, id)
}

// GetLesson returns domain.ErrNotFound if the lesson does not exist.
func (s *Service) GetLesson(ctx context.Context, id string) (*domain.LessonRecord, error) {
	return s.store.GetLesson(ctx, id)
}

// PlanLessons plans the lessons of a concept, stores them and lists them
// under the concept of the roadmap.
func (s *Service) PlanLessons(ctx context.Context, req PlanRequest) ([]domain.LessonRecord, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if err := clean(sanitize.DefaultMaxSize, &req.Topic, &req.SectionTitle, &req.ConceptTitle); err != nil {
		return nil, err
	}
	roadmap, err := s.store.GetRoadmap(ctx, req.RoadmapID)
	if err != nil {
		return nil, err
	}
	if _, _, ok := roadmap.FindConcept(req.SectionID, req.ConceptID); !ok {
		return nil, fmt.Errorf("concept %s in section %s: %w", req.ConceptID, req.SectionID, domain.ErrNotFound)
	}

	plans, err := s.model.PlanLessons(ctx, req.Topic, req.SectionTitle, req.ConceptTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to plan lessons for %q: %w", req.ConceptTitle, err)
	}
	lessons := s.lessonRecords(req.ConceptID, plans)
	if err := s.store.InsertLessons(ctx, lessons); err != nil {
		return nil, fmt.Errorf("failed to save lessons: %w", err)
	}
	if err := s.store.AttachLessons(ctx, req.RoadmapID, req.SectionID, req.ConceptID, lessons); err != nil {
		return nil, fmt.Errorf("failed to attach lessons: %w", err)
	}
	s.logger.InfoContext(ctx, "lessons planned", "roadmap_id", req.RoadmapID, "concept_id", req.ConceptID, "lessons", len(lessons))
	return lessons, nil
}

// GenerateLesson runs the lesson loop for a planned lesson and stores the
// content on the lesson record. Concurrent calls for the same lesson run one
// after the other.
func (s *Service) GenerateLesson(ctx context.Context, req LessonRequest) (*LessonResult, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if err := clean(sanitize.DefaultMaxSize, &req.LearnedSummary); err != nil {
		return nil, err
	}
	var res *LessonResult
	err := s.guard.WithLock(ctx, "lesson:"+req.LessonID, func(ctx context.Context) error {
		var err error
		res, err = s.generateLesson(ctx, req)
		return err
	})
	return res, err
}

func (s *Service) generateLesson(ctx context.Context, req LessonRequest) (*LessonResult, error) {
	roadmap, err := s.store.GetRoadmap(ctx, req.RoadmapID)
	if err != nil {
		return nil, err
	}
	lesson, err := s.store.GetLesson(ctx, req.LessonID)
	if err != nil {
		return nil, err
	}
	siblings, err := s.store.ListLessons(ctx, req.ConceptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons of concept %s: %w", req.ConceptID, err)
	}
	titles := make([]string, 0, len(siblings))
	for _, l := range siblings {
		if l.ID != lesson.ID {
			titles = append(titles, l.Title)
		}
	}

	state, runID, err := s.runLessonLoop(ctx, domain.LessonContext{
		Roadmap:        *roadmap,
		SectionTitle:   req.SectionTitle,
		ConceptTitle:   req.ConceptTitle,
		LessonTitle:    lesson.Title,
		Objectives:     lesson.Objectives,
		LearnedSummary: req.LearnedSummary,
		SiblingTitles:  titles,
	})
	if err != nil {
		return nil, err
	}
	if state.Artifact == nil {
		return nil, domain.ErrNoArtifact
	}

	if err := s.store.SaveLessonContent(ctx, lesson.ID, *state.Artifact, state.Approved()); err != nil {
		return nil, fmt.Errorf("failed to save lesson %s: %w", lesson.ID, err)
	}
	stored, err := s.store.GetLesson(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "lesson generated",
		"lesson_id", lesson.ID,
		"exercises", len(state.Artifact.Exercises),
		"approved", state.Approved(),
		"run_id", runID,
	)
	return &LessonResult{Lesson: stored, Approved: state.Approved(), RunID: runID}, nil
}

// CheckAnswer judges a learner answer against the lesson content.
func (s *Service) CheckAnswer(ctx context.Context, req AnswerRequest) (domain.AnswerVerdict, error) {
	if err := check(req); err != nil {
		return domain.AnswerVerdict{}, err
	}
	if err := clean(sanitize.DefaultMaxSize, &req.Question, &req.Answer); err != nil {
		return domain.AnswerVerdict{}, err
	}
	if err := clean(sanitize.MaxContentSize, &req.LessonContent); err != nil {
		return domain.AnswerVerdict{}, err
	}
	return s.model.CheckAnswer(ctx, req.Question, req.Answer, req.LessonContent)
}
