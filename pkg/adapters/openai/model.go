package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/skillflow/internal/prompts"
	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/ports"
)

// MaxPlannedLessons bounds the number of lessons accepted from the planner.
const MaxPlannedLessons = 10

var _ ports.ContentModel = (*Model)(nil)

// Model implements every model-backed capability. The answer checker may run on
// a different client than the generators and reviewers.
type Model struct {
	main    *Client
	checker *Client
}

// NewModel creates a Model. A nil checker reuses main.
func NewModel(main, checker *Client) *Model {
	if checker == nil {
		checker = main
	}
	return &Model{main: main, checker: checker}
}

// GenerateRoadmap drafts a roadmap. On revision the rejected draft is replayed
// as the model's own answer, followed by the reviewer feedback.
func (m *Model) GenerateRoadmap(ctx context.Context, topic string, rev *domain.Revision[domain.Roadmap]) (*domain.Roadmap, error) {
	msgs := []message{system(prompts.MustSystem(prompts.RoadmapGenerator)), user(topic)}
	if rev != nil {
		more, err := revisionMessages("roadmap", rev.Feedback, rev.Prior, func(r *domain.Roadmap) (string, error) {
			b, err := json.MarshalIndent(roadmapDraftOf(r), "", "  ")
			return string(b), err
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, more...)
	}

	var draft roadmapDraft
	if err := m.main.complete(ctx, "generate_roadmap", msgs, &draft); err != nil {
		return nil, err
	}
	roadmap := draft.toDomain()
	if roadmap.Topic == "" {
		roadmap.Topic = topic
	}
	if err := m.main.check("generate_roadmap", roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

// ReviewRoadmap judges the latest roadmap draft in the transcript. Generator turns
// are replayed as assistant messages and earlier reviews as user messages.
func (m *Model) ReviewRoadmap(ctx context.Context, transcript []domain.Turn) (domain.Review, error) {
	msgs := make([]message, 0, len(transcript)+1)
	msgs = append(msgs, system(prompts.MustSystem(prompts.RoadmapReviewer)))
	for _, turn := range transcript {
		switch turn.Role {
		case domain.RoleGenerator:
			msgs = append(msgs, assistant(turn.Content))
		case domain.RoleReviewer:
			msgs = append(msgs, user(turn.Content))
		default:
			return domain.Review{}, fmt.Errorf("review_roadmap: unknown transcript role %q", turn.Role)
		}
	}

	var draft reviewDraft
	if err := m.main.complete(ctx, "review_roadmap", msgs, &draft); err != nil {
		return domain.Review{}, err
	}
	return domain.Review{Approved: draft.Approved, Feedback: draft.Feedback}, nil
}

// GenerateLesson writes one lesson from the full lesson context.
func (m *Model) GenerateLesson(ctx context.Context, in domain.LessonContext, rev *domain.Revision[domain.Lesson]) (*domain.Lesson, error) {
	roadmapJSON, err := json.MarshalIndent(roadmapDraftOf(&in.Roadmap), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("generate_lesson: %w", err)
	}
	request, err := prompts.LessonRequest{
		RoadmapJSON:    string(roadmapJSON),
		SectionTitle:   in.SectionTitle,
		ConceptTitle:   in.ConceptTitle,
		LessonTitle:    in.LessonTitle,
		Objectives:     in.Objectives,
		LearnedSummary: in.LearnedSummary,
	}.Render()
	if err != nil {
		return nil, err
	}

	msgs := []message{system(prompts.MustSystem(prompts.LessonGenerator)), user(request)}
	if rev != nil {
		more, err := revisionMessages("lesson", rev.Feedback, rev.Prior, func(l *domain.Lesson) (string, error) {
			return l.Content, nil
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, more...)
	}

	var draft lessonDraft
	if err := m.main.complete(ctx, "generate_lesson", msgs, &draft); err != nil {
		return nil, err
	}
	return draft.toDomain()
}

// ReviewLesson judges lesson content against the other lessons of its concept.
func (m *Model) ReviewLesson(ctx context.Context, lessonTitle string, siblingTitles []string, content string) (domain.Review, error) {
	request, err := prompts.LessonReviewRequest{
		LessonTitle:   lessonTitle,
		SiblingTitles: siblingTitles,
		Content:       content,
	}.Render()
	if err != nil {
		return domain.Review{}, err
	}

	var draft reviewDraft
	msgs := []message{system(prompts.MustSystem(prompts.LessonReviewer)), user(request)}
	if err := m.main.complete(ctx, "review_lesson", msgs, &draft); err != nil {
		return domain.Review{}, err
	}
	return domain.Review{Approved: draft.Approved, Feedback: draft.Feedback}, nil
}

// PlanLessons outlines between 1 and MaxPlannedLessons lessons for a concept.
func (m *Model) PlanLessons(ctx context.Context, topic, section, concept string) ([]domain.LessonPlan, error) {
	request, err := prompts.PlanRequest{Topic: topic, Section: section, Concept: concept}.Render()
	if err != nil {
		return nil, err
	}

	var draft planDraft
	msgs := []message{system(prompts.MustSystem(prompts.LessonPlanner)), user(request)}
	if err := m.main.complete(ctx, "plan_lessons", msgs, &draft); err != nil {
		return nil, err
	}

	plans := draft.toDomain()
	if len(plans) == 0 || len(plans) > MaxPlannedLessons {
		return nil, fmt.Errorf("%w: plan_lessons: got %d lessons, want 1-%d", domain.ErrInvalidArtifact, len(plans), MaxPlannedLessons)
	}
	for i := range plans {
		if err := m.main.check("plan_lessons", &plans[i]); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// CheckAnswer evaluates a learner answer with the checker client.
func (m *Model) CheckAnswer(ctx context.Context, question, answer, lessonContent string) (domain.AnswerVerdict, error) {
	request, err := prompts.AnswerRequest{Question: question, Answer: answer, LessonContent: lessonContent}.Render()
	if err != nil {
		return domain.AnswerVerdict{}, err
	}

	var draft verdictDraft
	msgs := []message{system(prompts.MustSystem(prompts.AnswerChecker)), user(request)}
	if err := m.checker.complete(ctx, "check_answer", msgs, &draft); err != nil {
		return domain.AnswerVerdict{}, err
	}
	return domain.AnswerVerdict{IsCorrect: draft.IsCorrect, Explanation: draft.Explanation}, nil
}

// revisionMessages replays a rejected draft and asks for a corrected one.
// Without a prior draft only the feedback is sent.
func revisionMessages[A any](artifact, feedback string, prior *A, show func(*A) (string, error)) ([]message, error) {
	var msgs []message
	if prior != nil {
		text, err := show(prior)
		if err != nil {
			return nil, fmt.Errorf("failed to replay prior %s: %w", artifact, err)
		}
		msgs = append(msgs, assistant(text))
	}
	request, err := prompts.RevisionRequest{Artifact: artifact, Feedback: feedback}.Render()
	if err != nil {
		return nil, err
	}
	return append(msgs, user(request)), nil
}
