// Package http exposes the SkillFlow service over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/aretw0/skillflow"
	"github.com/aretw0/skillflow/internal/logging"
	"github.com/aretw0/skillflow/internal/sanitize"
	"github.com/aretw0/skillflow/pkg/domain"
)

// Service is the part of skillflow.Service the API needs.
type Service interface {
	GenerateRoadmap(ctx context.Context, topic string) (*skillflow.RoadmapResult, error)
	ListRoadmaps(ctx context.Context) ([]domain.Roadmap, error)
	GetRoadmap(ctx context.Context, id string) (*domain.Roadmap, error)
	GetLesson(ctx context.Context, id string) (*domain.LessonRecord, error)
	GenerateLesson(ctx context.Context, req skillflow.LessonRequest) (*skillflow.LessonResult, error)
	PlanLessons(ctx context.Context, req skillflow.PlanRequest) ([]domain.LessonRecord, error)
	CheckAnswer(ctx context.Context, req skillflow.AnswerRequest) (domain.AnswerVerdict, error)
	GetRun(ctx context.Context, id string) (*domain.RunRecord, error)
}

var _ Service = (*skillflow.Service)(nil)

// MaxBodySize caps API request bodies. It leaves room for the JSON envelope
// around the largest free text field.
const MaxBodySize = sanitize.MaxContentSize + 16<<10

// Server holds the handlers of the API.
type Server struct {
	svc      Service
	validate *validator.Validate
	logger   *slog.Logger

	allowedOrigins []string
	metrics        http.Handler
	validateSpec   bool
}

// Option configures the handler returned by NewHandler.
type Option func(*Server)

// WithAllowedOrigins sets the origins allowed by CORS. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithMetrics mounts a metrics handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSpecValidation toggles validation of requests against the OpenAPI document. On by default.
func WithSpecValidation(enabled bool) Option {
	return func(s *Server) {
		s.validateSpec = enabled
	}
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc Service, opts ...Option) (http.Handler, error) {
	s := &Server{
		svc:          svc,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logging.NewNop(),
		validateSpec: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	var specCheck func(http.Handler) http.Handler
	if s.validateSpec {
		doc, err := GetSwagger()
		if err != nil {
			return nil, err
		}
		router, err := newSpecRouter(doc)
		if err != nil {
			return nil, err
		}
		specCheck = requestValidator(router)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(MaxBodySize))
		if specCheck != nil {
			r.Use(specCheck)
		}
		r.Post("/generate-roadmap", s.GenerateRoadmap)
		r.Get("/roadmaps", s.ListRoadmaps)
		r.Get("/roadmaps/{id}", s.GetRoadmap)
		r.Get("/lessons/{id}", s.GetLesson)
		r.Post("/lesson", s.GenerateLesson)
		r.Post("/plan-lessons", s.PlanLessons)
		r.Post("/check-answer", s.CheckAnswer)
		r.Get("/runs/{id}", s.GetRun)
	})
	return r, nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// fail maps service errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, skillflow.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), op+" failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
