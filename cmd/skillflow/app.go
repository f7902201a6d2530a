package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/term"

	"github.com/aretw0/skillflow"
	"github.com/aretw0/skillflow/internal/config"
	"github.com/aretw0/skillflow/internal/logging"
	"github.com/aretw0/skillflow/internal/presentation/tui"
	mongostore "github.com/aretw0/skillflow/pkg/adapters/mongo"
	"github.com/aretw0/skillflow/pkg/adapters/openai"
	redisadapter "github.com/aretw0/skillflow/pkg/adapters/redis"
	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/observability"
)

const tracerName = "github.com/aretw0/skillflow"

// app is everything a command needs: configuration, logger and a wired service.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	svc     *skillflow.Service
	closers []func(context.Context) error
}

// newApp loads configuration and wires the service with the backends it names.
// Mongo and Redis are only dialled when their address is configured.
func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	dir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logging.New(level),
		metrics: observability.NewMetrics(),
	}

	model, err := a.newModel()
	if err != nil {
		return nil, err
	}

	opts := []skillflow.Option{
		skillflow.WithLogger(a.logger),
		skillflow.WithRoadmapMaxIterations(cfg.Loop.RoadmapMaxIterations),
		skillflow.WithLessonMaxIterations(cfg.Loop.LessonMaxIterations),
		skillflow.WithHooks(a.metrics.Hooks()),
		skillflow.WithHooks(observability.LoggingHooks(a.logger)),
		skillflow.WithTracer(otel.Tracer(tracerName)),
	}

	if cfg.Mongo.URI != "" {
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		store, err := mongostore.New(ctx, mongostore.Options{
			Client:   client,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		opts = append(opts, skillflow.WithStore(store))
		a.logger.Info("Using MongoDB store", "database", cfg.Mongo.Database)
	}

	if cfg.Redis.Addr != "" {
		runs := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisadapter.WithTTL(cfg.Redis.RunTTL))
		a.closers = append(a.closers, func(context.Context) error { return runs.Close() })
		if err := runs.Client().Ping(ctx).Err(); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		opts = append(opts,
			skillflow.WithRunLog(runs),
			skillflow.WithLocker(redisadapter.NewLocker(runs.Client(), "skillflow:")),
		)
		a.logger.Info("Using Redis run log and lesson locks", "addr", cfg.Redis.Addr)
	}

	a.svc, err = skillflow.New(model, opts...)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) newModel() (*openai.Model, error) {
	llm := a.cfg.LLM
	primary, err := openai.New(endpoint(llm), openai.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	checker := primary
	if llm.CheckerModel != "" {
		checker, err = openai.New(endpoint(llm.Checker()), openai.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
	}
	return openai.NewModel(primary, checker), nil
}

func endpoint(c config.LLMConfig) openai.Config {
	return openai.Config{
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey,
		Model:             c.Model,
		Temperature:       c.Temperature,
		RequestsPerMinute: c.RequestsPerMinute,
		Timeout:           c.Timeout,
	}
}

// Close releases backend connections in reverse order of creation.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

// rendererFor picks glamour for terminals and raw markdown otherwise.
func rendererFor(w io.Writer) tui.Render {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return tui.Plain
	}
	width := 0
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
		width = min(cols, 100)
	}
	r, err := tui.NewRenderer("", width)
	if err != nil {
		return tui.Plain
	}
	return r
}

func printMarkdown(w io.Writer, md string) error {
	out, err := rendererFor(w)(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

// locateConcept finds the section and concept with conceptID in r.
func locateConcept(r *domain.Roadmap, conceptID string) (*domain.Section, *domain.Concept, error) {
	for i := range r.Sections {
		s := &r.Sections[i]
		for j := range s.Concepts {
			if s.Concepts[j].ID == conceptID {
				return s, &s.Concepts[j], nil
			}
		}
	}
	return nil, nil, fmt.Errorf("concept %s in roadmap %s: %w", conceptID, r.ID, domain.ErrNotFound)
}
