// Package mcp exposes the SkillFlow service as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/skillflow"
	"github.com/aretw0/skillflow/internal/logging"
	"github.com/aretw0/skillflow/pkg/domain"
)

// RoadmapsURI is the resource listing stored roadmaps.
const RoadmapsURI = "skillflow://roadmaps"

// Service is the part of skillflow.Service exposed as tools.
type Service interface {
	GenerateRoadmap(ctx context.Context, topic string) (*skillflow.RoadmapResult, error)
	ListRoadmaps(ctx context.Context) ([]domain.Roadmap, error)
	GenerateLesson(ctx context.Context, req skillflow.LessonRequest) (*skillflow.LessonResult, error)
	PlanLessons(ctx context.Context, req skillflow.PlanRequest) ([]domain.LessonRecord, error)
	CheckAnswer(ctx context.Context, req skillflow.AnswerRequest) (domain.AnswerVerdict, error)
}

var _ Service = (*skillflow.Service)(nil)

type GenerateRoadmapArgs struct {
	Topic string `json:"topic"`
}

type RoadmapResponse struct {
	Roadmap  *domain.Roadmap       `json:"roadmap" jsonschema_description:"The stored roadmap"`
	Lessons  []domain.LessonRecord `json:"lessons" jsonschema_description:"Lessons planned for the first concept"`
	Approved bool                  `json:"approved" jsonschema_description:"Whether the reviewer approved the final draft"`
	RunID    string                `json:"run_id"`
}

type PlanLessonsArgs struct {
	RoadmapID    string `json:"roadmap_id"`
	SectionID    string `json:"section_id"`
	ConceptID    string `json:"concept_id"`
	Topic        string `json:"topic"`
	SectionTitle string `json:"section_title"`
	ConceptTitle string `json:"concept_title"`
}

type PlanLessonsResponse struct {
	Lessons []domain.LessonRecord `json:"lessons"`
}

type GenerateLessonArgs struct {
	RoadmapID      string `json:"roadmap_id"`
	LessonID       string `json:"lesson_id"`
	ConceptID      string `json:"concept_id"`
	SectionTitle   string `json:"section_title"`
	ConceptTitle   string `json:"concept_title"`
	LearnedSummary string `json:"learned_summary"`
}

type LessonResponse struct {
	Lesson   *domain.LessonRecord `json:"lesson"`
	Approved bool                 `json:"approved"`
	RunID    string               `json:"run_id"`
}

type CheckAnswerArgs struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	LessonContent string `json:"lesson_content"`
}

// Server exposes a Service over MCP.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("skillflow-mcp", skillflow.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("generate_roadmap",
		mcp.WithDescription("Generate, review and store a learning roadmap for a topic. Lessons for the first concept are planned as well."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("What the learner wants to study")),
		mcp.WithOutputSchema[RoadmapResponse](),
	), mcp.NewStructuredToolHandler(s.handleGenerateRoadmap))

	s.mcpServer.AddTool(mcp.NewTool("plan_lessons",
		mcp.WithDescription("Plan the lessons of a roadmap concept and attach them to the roadmap."),
		mcp.WithString("roadmap_id", mcp.Required()),
		mcp.WithString("section_id", mcp.Required()),
		mcp.WithString("concept_id", mcp.Required()),
		mcp.WithString("topic", mcp.Required(), mcp.Description("Roadmap topic")),
		mcp.WithString("section_title", mcp.Required()),
		mcp.WithString("concept_title", mcp.Required()),
		mcp.WithOutputSchema[PlanLessonsResponse](),
	), mcp.NewStructuredToolHandler(s.handlePlanLessons))

	s.mcpServer.AddTool(mcp.NewTool("generate_lesson",
		mcp.WithDescription("Generate and review the content and exercises of a planned lesson."),
		mcp.WithString("roadmap_id", mcp.Required()),
		mcp.WithString("lesson_id", mcp.Required()),
		mcp.WithString("concept_id", mcp.Required()),
		mcp.WithString("section_title", mcp.Required()),
		mcp.WithString("concept_title", mcp.Required()),
		mcp.WithString("learned_summary", mcp.Description("What the learner has covered so far")),
		mcp.WithOutputSchema[LessonResponse](),
	), mcp.NewStructuredToolHandler(s.handleGenerateLesson))

	s.mcpServer.AddTool(mcp.NewTool("check_answer",
		mcp.WithDescription("Judge a learner's answer to an open question against the lesson content."),
		mcp.WithString("question", mcp.Required()),
		mcp.WithString("answer", mcp.Required()),
		mcp.WithString("lesson_content", mcp.Required()),
		mcp.WithOutputSchema[domain.AnswerVerdict](),
	), mcp.NewStructuredToolHandler(s.handleCheckAnswer))
}

func (s *Server) handleGenerateRoadmap(ctx context.Context, _ mcp.CallToolRequest, args GenerateRoadmapArgs) (RoadmapResponse, error) {
	res, err := s.svc.GenerateRoadmap(ctx, args.Topic)
	if err != nil {
		s.logger.Error("MCP generate_roadmap failed", "err", err)
		return RoadmapResponse{}, fmt.Errorf("generate roadmap: %w", err)
	}
	return RoadmapResponse{Roadmap: res.Roadmap, Lessons: res.Lessons, Approved: res.Approved, RunID: res.RunID}, nil
}

func (s *Server) handlePlanLessons(ctx context.Context, _ mcp.CallToolRequest, args PlanLessonsArgs) (PlanLessonsResponse, error) {
	lessons, err := s.svc.PlanLessons(ctx, skillflow.PlanRequest{
		RoadmapID:    args.RoadmapID,
		SectionID:    args.SectionID,
		ConceptID:    args.ConceptID,
		Topic:        args.Topic,
		SectionTitle: args.SectionTitle,
		ConceptTitle: args.ConceptTitle,
	})
	if err != nil {
		return PlanLessonsResponse{}, fmt.Errorf("plan lessons: %w", err)
	}
	return PlanLessonsResponse{Lessons: lessons}, nil
}

func (s *Server) handleGenerateLesson(ctx context.Context, _ mcp.CallToolRequest, args GenerateLessonArgs) (LessonResponse, error) {
	res, err := s.svc.GenerateLesson(ctx, skillflow.LessonRequest{
		RoadmapID:      args.RoadmapID,
		LessonID:       args.LessonID,
		ConceptID:      args.ConceptID,
		SectionTitle:   args.SectionTitle,
		ConceptTitle:   args.ConceptTitle,
		LearnedSummary: args.LearnedSummary,
	})
	if err != nil {
		s.logger.Error("MCP generate_lesson failed", "lesson_id", args.LessonID, "err", err)
		return LessonResponse{}, fmt.Errorf("generate lesson: %w", err)
	}
	return LessonResponse{Lesson: res.Lesson, Approved: res.Approved, RunID: res.RunID}, nil
}

func (s *Server) handleCheckAnswer(ctx context.Context, _ mcp.CallToolRequest, args CheckAnswerArgs) (domain.AnswerVerdict, error) {
	verdict, err := s.svc.CheckAnswer(ctx, skillflow.AnswerRequest{
		Question:      args.Question,
		Answer:        args.Answer,
		LessonContent: args.LessonContent,
	})
	if err != nil {
		return domain.AnswerVerdict{}, fmt.Errorf("check answer: %w", err)
	}
	return verdict, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(RoadmapsURI, "Stored roadmaps",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		roadmaps, err := s.svc.ListRoadmaps(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list roadmaps: %w", err)
		}
		if roadmaps == nil {
			roadmaps = []domain.Roadmap{}
		}
		jsonBytes, err := json.Marshal(roadmaps)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      RoadmapsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
