package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/skillflow"
	"github.com/aretw0/skillflow/pkg/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type generateRoadmapRequest struct {
	Topic string `json:"topic" validate:"required"`
}

type generateRoadmapResponse struct {
	Status    string `json:"status"`
	RoadmapID string `json:"roadmap_id"`
	Approved  bool   `json:"approved"`
	RunID     string `json:"run_id"`
}

type lessonRequest struct {
	RoadmapID      string `json:"roadmapId" validate:"required"`
	RoadmapTitle   string `json:"roadmapTitle"`
	SectionTitle   string `json:"sectionTitle" validate:"required"`
	ConceptTitle   string `json:"conceptTitle" validate:"required"`
	ConceptID      string `json:"conceptId" validate:"required"`
	LessonID       string `json:"lessonId" validate:"required"`
	LearnedSummary string `json:"learnedSummary"`
}

type lessonResponse struct {
	Message  string `json:"message"`
	LessonID string `json:"lesson_id"`
	Approved bool   `json:"approved"`
	RunID    string `json:"run_id"`
}

type planLessonsRequest struct {
	RoadmapTopic string `json:"roadmap_topic" validate:"required"`
	SectionTitle string `json:"section_title" validate:"required"`
	ConceptTitle string `json:"concept_title" validate:"required"`
	ConceptID    string `json:"concept_id" validate:"required"`
	RoadmapID    string `json:"roadmap_id" validate:"required"`
	SectionID    string `json:"section_id" validate:"required"`
}

type planLessonsResponse struct {
	Message string                `json:"message"`
	Lessons []domain.LessonRecord `json:"lessons"`
}

type checkAnswerRequest struct {
	Question      string `json:"question" validate:"required"`
	Answer        string `json:"answer" validate:"required"`
	LessonContent string `json:"lessonContent" validate:"required"`
}

// GenerateRoadmap handles the POST /generate-roadmap request.
func (s *Server) GenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	var body generateRoadmapRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.svc.GenerateRoadmap(r.Context(), body.Topic)
	if err != nil {
		s.fail(w, r, "generate roadmap", err)
		return
	}
	writeJSON(w, http.StatusCreated, generateRoadmapResponse{
		Status:    "success",
		RoadmapID: res.Roadmap.ID,
		Approved:  res.Approved,
		RunID:     res.RunID,
	})
}

// ListRoadmaps handles the GET /roadmaps request.
func (s *Server) ListRoadmaps(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListRoadmaps(r.Context())
	if err != nil {
		s.fail(w, r, "list roadmaps", err)
		return
	}
	if list == nil {
		list = []domain.Roadmap{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roadmaps": list})
}

// GetRoadmap handles the GET /roadmaps/{id} request.
func (s *Server) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	roadmap, err := s.svc.GetRoadmap(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "get roadmap", err)
		return
	}
	writeJSON(w, http.StatusOK, roadmap)
}

// GetLesson handles the GET /lessons/{id} request.
func (s *Server) GetLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := s.svc.GetLesson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "get lesson", err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

// GenerateLesson handles the POST /lesson request.
func (s *Server) GenerateLesson(w http.ResponseWriter, r *http.Request) {
	var body lessonRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.svc.GenerateLesson(r.Context(), skillflow.LessonRequest{
		RoadmapID:      body.RoadmapID,
		LessonID:       body.LessonID,
		ConceptID:      body.ConceptID,
		SectionTitle:   body.SectionTitle,
		ConceptTitle:   body.ConceptTitle,
		LearnedSummary: body.LearnedSummary,
	})
	if err != nil {
		s.fail(w, r, "generate lesson", err)
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse{
		Message:  "Lesson generated successfully",
		LessonID: body.LessonID,
		Approved: res.Approved,
		RunID:    res.RunID,
	})
}

// PlanLessons handles the POST /plan-lessons request.
func (s *Server) PlanLessons(w http.ResponseWriter, r *http.Request) {
	var body planLessonsRequest
	if !s.decode(w, r, &body) {
		return
	}
	lessons, err := s.svc.PlanLessons(r.Context(), skillflow.PlanRequest{
		RoadmapID:    body.RoadmapID,
		SectionID:    body.SectionID,
		ConceptID:    body.ConceptID,
		Topic:        body.RoadmapTopic,
		SectionTitle: body.SectionTitle,
		ConceptTitle: body.ConceptTitle,
	})
	if err != nil {
		s.fail(w, r, "plan lessons", err)
		return
	}
	writeJSON(w, http.StatusOK, planLessonsResponse{Message: "Lessons planned successfully", Lessons: lessons})
}

// CheckAnswer handles the POST /check-answer request.
func (s *Server) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var body checkAnswerRequest
	if !s.decode(w, r, &body) {
		return
	}
	verdict, err := s.svc.CheckAnswer(r.Context(), skillflow.AnswerRequest{
		Question:      body.Question,
		Answer:        body.Answer,
		LessonContent: body.LessonContent,
	})
	if err != nil {
		s.fail(w, r, "check answer", err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// GetRun handles the GET /runs/{id} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "get run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "skillflow-http",
		"version":     skillflow.Version,
		"api_version": apiVersion,
	})
}
