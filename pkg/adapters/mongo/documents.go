package mongo

import (
	"fmt"
	"time"

	"github.com/aretw0/skillflow/pkg/domain"
)

type roadmapDocument struct {
	ID        string            `bson:"_id"`
	Topic     string            `bson:"topic"`
	Sections  []sectionDocument `bson:"sections"`
	CreatedAt time.Time         `bson:"created_at"`
}

type sectionDocument struct {
	ID          string            `bson:"id"`
	Title       string            `bson:"title"`
	Description string            `bson:"description,omitempty"`
	Status      string            `bson:"status,omitempty"`
	Concepts    []conceptDocument `bson:"concepts"`
}

type conceptDocument struct {
	ID          string              `bson:"id"`
	Title       string              `bson:"title"`
	Description string              `bson:"description,omitempty"`
	Status      string              `bson:"status,omitempty"`
	Lessons     []lessonRefDocument `bson:"lessons,omitempty"`
}

// lessonRefDocument is the lesson outline embedded in a roadmap concept.
// Content lives in the lessons collection only.
type lessonRefDocument struct {
	ID          string   `bson:"id"`
	Title       string   `bson:"title"`
	Description string   `bson:"description,omitempty"`
	Objectives  []string `bson:"learning_objectives"`
	Status      string   `bson:"status"`
}

type lessonDocument struct {
	ID          string                 `bson:"_id"`
	ConceptID   string                 `bson:"concept_id"`
	Title       string                 `bson:"title"`
	Description string                 `bson:"description,omitempty"`
	Objectives  []string               `bson:"learning_objectives"`
	Status      string                 `bson:"status"`
	Seq         int                    `bson:"seq"`
	Lesson      *lessonContentDocument `bson:"lesson,omitempty"`
	Approved    bool                   `bson:"approved"`
	CreatedAt   time.Time              `bson:"created_at"`
	UpdatedAt   time.Time              `bson:"updated_at"`
}

type lessonContentDocument struct {
	Content   string                    `bson:"content"`
	Exercises []domain.ExerciseEnvelope `bson:"exercises"`
	Summary   string                    `bson:"summary,omitempty"`
	IsFinal   bool                      `bson:"is_final"`
}

func toRoadmapDocument(r *domain.Roadmap) roadmapDocument {
	doc := roadmapDocument{
		ID:        r.ID,
		Topic:     r.Topic,
		Sections:  make([]sectionDocument, 0, len(r.Sections)),
		CreatedAt: r.CreatedAt,
	}
	for _, s := range r.Sections {
		sd := sectionDocument{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Status:      string(s.Status),
			Concepts:    make([]conceptDocument, 0, len(s.Concepts)),
		}
		for _, c := range s.Concepts {
			cd := conceptDocument{
				ID:          c.ID,
				Title:       c.Title,
				Description: c.Description,
				Status:      string(c.Status),
			}
			for _, l := range c.Lessons {
				cd.Lessons = append(cd.Lessons, lessonRefDocument{
					ID:          l.ID,
					Title:       l.Title,
					Description: l.Description,
					Objectives:  l.Objectives,
					Status:      string(l.Status),
				})
			}
			sd.Concepts = append(sd.Concepts, cd)
		}
		doc.Sections = append(doc.Sections, sd)
	}
	return doc
}

func (d roadmapDocument) toDomain() (*domain.Roadmap, error) {
	r := &domain.Roadmap{
		ID:        d.ID,
		Topic:     d.Topic,
		Sections:  make([]domain.Section, 0, len(d.Sections)),
		CreatedAt: d.CreatedAt,
	}
	for _, sd := range d.Sections {
		s := domain.Section{
			ID:          sd.ID,
			Title:       sd.Title,
			Description: sd.Description,
			Status:      domain.Status(sd.Status),
			Concepts:    make([]domain.Concept, 0, len(sd.Concepts)),
		}
		for _, cd := range sd.Concepts {
			c := domain.Concept{
				ID:          cd.ID,
				Title:       cd.Title,
				Description: cd.Description,
				Status:      domain.Status(cd.Status),
			}
			for _, l := range cd.Lessons {
				c.Lessons = append(c.Lessons, domain.LessonRecord{
					ID:        l.ID,
					ConceptID: cd.ID,
					LessonPlan: domain.LessonPlan{
						Title:       l.Title,
						Description: l.Description,
						Objectives:  l.Objectives,
					},
					Status: domain.Status(l.Status),
				})
			}
			s.Concepts = append(s.Concepts, c)
		}
		r.Sections = append(r.Sections, s)
	}
	return r, nil
}

func toLessonDocument(l *domain.LessonRecord) (lessonDocument, error) {
	doc := lessonDocument{
		ID:          l.ID,
		ConceptID:   l.ConceptID,
		Title:       l.Title,
		Description: l.Description,
		Objectives:  l.Objectives,
		Status:      string(l.Status),
		Approved:    l.Approved,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.Lesson != nil {
		content, err := toContentDocument(l.Lesson)
		if err != nil {
			return lessonDocument{}, err
		}
		doc.Lesson = content
	}
	return doc, nil
}

func toContentDocument(l *domain.Lesson) (*lessonContentDocument, error) {
	envs, err := l.Exercises.Envelopes()
	if err != nil {
		return nil, fmt.Errorf("encode exercises: %w", err)
	}
	return &lessonContentDocument{
		Content:   l.Content,
		Exercises: envs,
		Summary:   l.Summary,
		IsFinal:   l.IsFinal,
	}, nil
}

func (d lessonDocument) toDomain() (*domain.LessonRecord, error) {
	rec := &domain.LessonRecord{
		ID:        d.ID,
		ConceptID: d.ConceptID,
		LessonPlan: domain.LessonPlan{
			Title:       d.Title,
			Description: d.Description,
			Objectives:  d.Objectives,
		},
		Status:    domain.Status(d.Status),
		Approved:  d.Approved,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Lesson != nil {
		exercises, err := domain.ExercisesFromEnvelopes(d.Lesson.Exercises)
		if err != nil {
			return nil, fmt.Errorf("lesson %s: decode exercises: %w", d.ID, err)
		}
		rec.Lesson = &domain.Lesson{
			Content:   d.Lesson.Content,
			Exercises: exercises,
			Summary:   d.Lesson.Summary,
			IsFinal:   d.Lesson.IsFinal,
		}
	}
	return rec, nil
}
