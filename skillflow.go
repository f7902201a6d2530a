package skillflow

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/skillflow/internal/logging"
	"github.com/aretw0/skillflow/internal/runtime"
	"github.com/aretw0/skillflow/pkg/adapters/memory"
	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/guard"
	"github.com/aretw0/skillflow/pkg/ports"
)

// Service is the high-level entry point of SkillFlow.
// It owns no per-request state and is safe for concurrent use.
type Service struct {
	model ports.ContentModel
	store ports.CurriculumStore
	runs  ports.RunLog

	locker  ports.DistributedLocker
	lockTTL time.Duration
	guard   *guard.Guard

	roadmapLoop *runtime.RoadmapLoop
	lessonLoop  *runtime.LessonLoop

	roadmapMax int
	lessonMax  int
	hooks      domain.LoopHooks
	tracer     trace.Tracer
	logger     *slog.Logger

	newID func() string
	now   func() time.Time
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithStore sets where roadmaps and lessons are persisted. Defaults to memory.
func WithStore(store ports.CurriculumStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithRunLog sets where loop run summaries are kept. Defaults to a bounded memory log.
func WithRunLog(runs ports.RunLog) Option {
	return func(s *Service) {
		s.runs = runs
	}
}

// WithLocker coordinates lesson generation across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithLockTTL sets how long a distributed lesson lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.lockTTL = ttl
	}
}

// WithRoadmapMaxIterations caps roadmap generations per run.
func WithRoadmapMaxIterations(n int) Option {
	return func(s *Service) {
		s.roadmapMax = n
	}
}

// WithLessonMaxIterations caps lesson generations per run.
func WithLessonMaxIterations(n int) Option {
	return func(s *Service) {
		s.lessonMax = n
	}
}

// WithHooks registers observability hooks on both loops.
func WithHooks(hooks domain.LoopHooks) Option {
	return func(s *Service) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithTracer sets the tracer used for loop step spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service over the given model.
func New(model ports.ContentModel, opts ...Option) (*Service, error) {
	if model == nil {
		return nil, errors.New("content model is required")
	}
	s := &Service{
		model:      model,
		roadmapMax: runtime.DefaultMaxIterations,
		lessonMax:  runtime.DefaultMaxIterations,
		lockTTL:    guard.DefaultTTL,
		logger:     logging.NewNop(),
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}
	if s.runs == nil {
		s.runs = memory.NewRunLog(memory.DefaultRunLogLimit)
	}

	guardOpts := []guard.Option{guard.WithLogger(s.logger), guard.WithTTL(s.lockTTL)}
	if s.locker != nil {
		guardOpts = append(guardOpts, guard.WithLocker(s.locker))
	}
	s.guard = guard.New(guardOpts...)

	loopOpts := []runtime.Option{
		runtime.WithLogger(s.logger),
		runtime.WithHooks(s.hooks),
	}
	if s.tracer != nil {
		loopOpts = append(loopOpts, runtime.WithTracer(s.tracer))
	}
	s.roadmapLoop = runtime.NewRoadmapLoop(model, model,
		append([]runtime.Option{runtime.WithMaxIterations(s.roadmapMax)}, loopOpts...)...)
	s.lessonLoop = runtime.NewLessonLoop(model, model,
		append([]runtime.Option{runtime.WithMaxIterations(s.lessonMax)}, loopOpts...)...)
	return s, nil
}

// Store returns the curriculum store in use.
func (s *Service) Store() ports.CurriculumStore {
	return s.store
}
