package runtime

import (
	"context"

	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/ports"
)

// RoadmapLoop drafts and reviews a roadmap for a topic.
type RoadmapLoop = Loop[domain.Roadmap, domain.RoadmapContext]

// NewRoadmapLoop wires a roadmap generator and reviewer into a loop driver.
// The generator sees the topic and, after a rejection, the rejected draft with its feedback.
// The reviewer sees the conversation transcript accumulated so far.
func NewRoadmapLoop(gen ports.RoadmapGenerator, rev ports.RoadmapReviewer, opts ...Option) *RoadmapLoop {
	return NewLoop(domain.LoopRoadmap,
		GeneratorFunc[domain.Roadmap, domain.RoadmapContext](func(ctx context.Context, req GenerateRequest[domain.Roadmap, domain.RoadmapContext]) (*domain.Roadmap, error) {
			return gen.GenerateRoadmap(ctx, req.Context.Topic, req.Revision)
		}),
		ReviewerFunc[domain.Roadmap, domain.RoadmapContext](func(ctx context.Context, req ReviewRequest[domain.Roadmap, domain.RoadmapContext]) (domain.Review, error) {
			return rev.ReviewRoadmap(ctx, req.Transcript)
		}),
		opts...,
	)
}
