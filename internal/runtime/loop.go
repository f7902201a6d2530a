package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/skillflow/internal/logging"
	"github.com/aretw0/skillflow/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/skillflow/internal/runtime"

// GenerateRequest is what a Generator receives for one invocation.
type GenerateRequest[A, C any] struct {
	Context C
	// Revision is set when the previous draft was rejected with feedback.
	Revision *domain.Revision[A]
	// Transcript is a copy of the conversation so far.
	Transcript []domain.Turn
}

// ReviewRequest is what a Reviewer receives for one invocation.
type ReviewRequest[A, C any] struct {
	Context    C
	Artifact   *A
	Transcript []domain.Turn
}

// Generator produces a candidate artifact.
type Generator[A, C any] interface {
	Generate(ctx context.Context, req GenerateRequest[A, C]) (*A, error)
}

// Reviewer judges a candidate artifact.
type Reviewer[A, C any] interface {
	Review(ctx context.Context, req ReviewRequest[A, C]) (domain.Review, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc[A, C any] func(ctx context.Context, req GenerateRequest[A, C]) (*A, error)

func (f GeneratorFunc[A, C]) Generate(ctx context.Context, req GenerateRequest[A, C]) (*A, error) {
	return f(ctx, req)
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc[A, C any] func(ctx context.Context, req ReviewRequest[A, C]) (domain.Review, error)

func (f ReviewerFunc[A, C]) Review(ctx context.Context, req ReviewRequest[A, C]) (domain.Review, error) {
	return f(ctx, req)
}

// Options configures a Loop.
type Options struct {
	MaxIterations int
	Logger        *slog.Logger
	Hooks         domain.LoopHooks
	Tracer        trace.Tracer
}

// Option defines a functional option for configuring a Loop.
type Option func(*Options)

// WithMaxIterations sets the generator ceiling. Values below 1 fall back to DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		o.MaxIterations = n
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LoopHooks) Option {
	return func(o *Options) {
		o.Hooks = hooks
	}
}

// WithTracer sets the tracer used for step spans. Defaults to the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Options) {
		o.Tracer = tracer
	}
}

// Loop is the loop driver: it alternates supervisor decisions with generator
// and reviewer steps until the supervisor says stop.
// A Loop holds no per-run state and is safe to share between concurrent runs.
type Loop[A, C any] struct {
	kind          domain.LoopKind
	generator     Generator[A, C]
	reviewer      Reviewer[A, C]
	maxIterations int
	logger        *slog.Logger
	hooks         domain.LoopHooks
	tracer        trace.Tracer
}

// NewLoop creates a loop driver over the given capabilities.
func NewLoop[A, C any](kind domain.LoopKind, gen Generator[A, C], rev Reviewer[A, C], opts ...Option) *Loop[A, C] {
	o := Options{
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxIterations < 1 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}
	return &Loop[A, C]{
		kind:          kind,
		generator:     gen,
		reviewer:      rev,
		maxIterations: o.MaxIterations,
		logger:        o.Logger.With("loop", string(kind)),
		hooks:         o.Hooks,
		tracer:        o.Tracer,
	}
}

// Kind returns the instantiation name.
func (l *Loop[A, C]) Kind() domain.LoopKind {
	return l.kind
}

// MaxIterations returns the configured generator ceiling.
func (l *Loop[A, C]) MaxIterations() int {
	return l.maxIterations
}

// Run drives the loop from initial until the supervisor returns StepStop.
// The initial state is not modified. Any generator or reviewer failure aborts
// the run and is returned as *domain.GenerationError or *domain.ReviewError.
func (l *Loop[A, C]) Run(ctx context.Context, initial *domain.LoopState[A, C]) (*domain.LoopState[A, C], error) {
	if initial == nil {
		return nil, errors.New("loop state is required")
	}
	if l.generator == nil || l.reviewer == nil {
		return nil, errors.New("loop requires a generator and a reviewer")
	}

	state := initial.Clone()
	start := time.Now()
	reviews := 0

	for {
		step := NextStep(state, l.maxIterations)
		l.logger.DebugContext(ctx, "supervisor decision",
			"step", step.String(),
			"iteration", state.Iteration,
			"last_step", string(state.LastStep),
		)

		switch step {
		case domain.StepStop:
			l.logger.InfoContext(ctx, "loop halted",
				"iteration", state.Iteration,
				"approved", state.Approved(),
				"has_artifact", state.Artifact != nil,
			)
			if l.hooks.OnLoopEnd != nil {
				l.hooks.OnLoopEnd(ctx, &domain.LoopEvent{
					EventBase:  l.event(domain.EventLoopEnd),
					Iterations: state.Iteration,
					Reviews:    reviews,
					Approved:   state.Approved(),
					Duration:   time.Since(start),
				})
			}
			return state, nil
		case domain.StepGenerate:
			if err := l.generate(ctx, state); err != nil {
				return nil, err
			}
		case domain.StepReview:
			if err := l.review(ctx, state); err != nil {
				return nil, err
			}
			reviews++
		default:
			return nil, fmt.Errorf("supervisor returned unknown step %d", int(step))
		}
	}
}

func (l *Loop[A, C]) generate(ctx context.Context, state *domain.LoopState[A, C]) error {
	attempt := state.Iteration + 1
	req := GenerateRequest[A, C]{
		Context:    state.Context,
		Transcript: append([]domain.Turn(nil), state.Transcript...),
	}
	if r := state.Review; r != nil && !r.Approved && r.Feedback != "" && state.Artifact != nil {
		req.Revision = &domain.Revision[A]{Prior: state.Artifact, Feedback: r.Feedback}
	}

	ctx, span := l.tracer.Start(ctx, "loop.generate", trace.WithAttributes(
		attribute.String("loop", string(l.kind)),
		attribute.Int("iteration", attempt),
		attribute.Bool("revision", req.Revision != nil),
	))
	defer span.End()

	l.logger.InfoContext(ctx, "generating", "iteration", attempt, "revision", req.Revision != nil)
	started := l.stepStart(ctx, domain.StepGenerate, attempt)

	artifact, err := l.generator.Generate(ctx, req)
	if err == nil && artifact == nil {
		err = fmt.Errorf("%w: generator returned nothing", domain.ErrInvalidArtifact)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.stepEnd(ctx, domain.StepGenerate, attempt, started, false, err)
		l.logger.ErrorContext(ctx, "generation failed", "iteration", attempt, "err", err)
		return &domain.GenerationError{Loop: l.kind, Iteration: attempt, Err: err}
	}

	state.Iteration = attempt
	state.Artifact = artifact
	state.LastStep = domain.LastStepGenerated
	if text, err := json.MarshalIndent(artifact, "", "  "); err == nil {
		state.Transcript = append(state.Transcript, domain.Turn{Role: domain.RoleGenerator, Content: string(text)})
	} else {
		l.logger.WarnContext(ctx, "artifact not recorded in transcript", "err", err)
	}

	l.stepEnd(ctx, domain.StepGenerate, attempt, started, false, nil)
	return nil
}

func (l *Loop[A, C]) review(ctx context.Context, state *domain.LoopState[A, C]) error {
	ctx, span := l.tracer.Start(ctx, "loop.review", trace.WithAttributes(
		attribute.String("loop", string(l.kind)),
		attribute.Int("iteration", state.Iteration),
	))
	defer span.End()

	l.logger.InfoContext(ctx, "reviewing", "iteration", state.Iteration)
	started := l.stepStart(ctx, domain.StepReview, state.Iteration)

	verdict, err := l.reviewer.Review(ctx, ReviewRequest[A, C]{
		Context:    state.Context,
		Artifact:   state.Artifact,
		Transcript: append([]domain.Turn(nil), state.Transcript...),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.stepEnd(ctx, domain.StepReview, state.Iteration, started, false, err)
		l.logger.ErrorContext(ctx, "review failed", "iteration", state.Iteration, "err", err)
		return &domain.ReviewError{Loop: l.kind, Iteration: state.Iteration, Err: err}
	}

	span.SetAttributes(attribute.Bool("approved", verdict.Approved))
	state.Review = &verdict
	state.LastStep = domain.LastStepReviewed
	if verdict.Feedback != "" {
		if text, err := json.Marshal(verdict); err == nil {
			state.Transcript = append(state.Transcript, domain.Turn{Role: domain.RoleReviewer, Content: string(text)})
		}
	}

	l.logger.InfoContext(ctx, "reviewed", "iteration", state.Iteration, "approved", verdict.Approved)
	l.stepEnd(ctx, domain.StepReview, state.Iteration, started, verdict.Approved, nil)
	return nil
}

func (l *Loop[A, C]) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Loop: l.kind}
}

func (l *Loop[A, C]) stepStart(ctx context.Context, step domain.Step, iteration int) time.Time {
	now := time.Now()
	if l.hooks.OnStepStart != nil {
		l.hooks.OnStepStart(ctx, &domain.StepEvent{
			EventBase: l.event(domain.EventStepStart),
			Step:      step,
			Iteration: iteration,
		})
	}
	return now
}

func (l *Loop[A, C]) stepEnd(ctx context.Context, step domain.Step, iteration int, started time.Time, approved bool, err error) {
	if l.hooks.OnStepEnd == nil {
		return
	}
	l.hooks.OnStepEnd(ctx, &domain.StepEvent{
		EventBase: l.event(domain.EventStepEnd),
		Step:      step,
		Iteration: iteration,
		Duration:  time.Since(started),
		Approved:  approved,
		Err:       err,
	})
}
