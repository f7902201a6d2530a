package domain

import "time"

// Status tracks learner progress on a section, concept or lesson.
type Status string

const (
	StatusCurrent Status = "current" // Unlocked and in progress
	StatusLocked  Status = "locked"  // Not reachable yet
)

// Roadmap is the top of the curriculum hierarchy.
type Roadmap struct {
	ID        string    `json:"id,omitempty"`
	Topic     string    `json:"topic" validate:"required"`
	Sections  []Section `json:"sections" validate:"required,min=1,dive"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Section groups related concepts of a roadmap.
type Section struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Status      Status    `json:"status,omitempty"`
	Concepts    []Concept `json:"concepts" validate:"required,min=1,dive"`
}

// Concept is the unit lessons are planned for.
type Concept struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description"`
	Status      Status         `json:"status,omitempty"`
	Lessons     []LessonRecord `json:"lessons,omitempty"`
}

// FindConcept returns the section and concept with the given ids.
func (r *Roadmap) FindConcept(sectionID, conceptID string) (*Section, *Concept, bool) {
	for i := range r.Sections {
		s := &r.Sections[i]
		if s.ID != sectionID {
			continue
		}
		for j := range s.Concepts {
			if s.Concepts[j].ID == conceptID {
				return s, &s.Concepts[j], true
			}
		}
	}
	return nil, nil, false
}
