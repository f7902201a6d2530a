package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skillflow"
	"github.com/aretw0/skillflow/pkg/domain"
)

// MockService records calls and returns canned results.
type MockService struct {
	roadmaps map[string]*domain.Roadmap
	lessons  map[string]*domain.LessonRecord
	runs     map[string]*domain.RunRecord
	err      error

	lessonReq skillflow.LessonRequest
	planReq   skillflow.PlanRequest
	answerReq skillflow.AnswerRequest
}

func newMockService() *MockService {
	return &MockService{
		roadmaps: map[string]*domain.Roadmap{"r1": {ID: "r1", Topic: "Go"}},
		lessons:  map[string]*domain.LessonRecord{"l1": {ID: "l1", LessonPlan: domain.LessonPlan{Title: "Goroutines"}}},
		runs:     map[string]*domain.RunRecord{"run1": {ID: "run1", Loop: domain.LoopRoadmap, Iterations: 1}},
	}
}

func (m *MockService) GenerateRoadmap(ctx context.Context, topic string) (*skillflow.RoadmapResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &skillflow.RoadmapResult{Roadmap: &domain.Roadmap{ID: "new-" + topic}, Approved: true, RunID: "run-x"}, nil
}

func (m *MockService) ListRoadmaps(ctx context.Context) ([]domain.Roadmap, error) {
	var out []domain.Roadmap
	for _, r := range m.roadmaps {
		out = append(out, *r)
	}
	return out, m.err
}

func (m *MockService) GetRoadmap(ctx context.Context, id string) (*domain.Roadmap, error) {
	if r, ok := m.roadmaps[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("roadmap %s: %w", id, domain.ErrNotFound)
}

func (m *MockService) GetLesson(ctx context.Context, id string) (*domain.LessonRecord, error) {
	if l, ok := m.lessons[id]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("lesson %s: %w", id, domain.ErrNotFound)
}

func (m *MockService) GenerateLesson(ctx context.Context, req skillflow.LessonRequest) (*skillflow.LessonResult, error) {
	m.lessonReq = req
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.lessons[req.LessonID]; !ok {
		return nil, fmt.Errorf("lesson %s: %w", req.LessonID, domain.ErrNotFound)
	}
	return &skillflow.LessonResult{Lesson: m.lessons[req.LessonID], Approved: false, RunID: "run-l"}, nil
}

func (m *MockService) PlanLessons(ctx context.Context, req skillflow.PlanRequest) ([]domain.LessonRecord, error) {
	m.planReq = req
	return []domain.LessonRecord{{ID: "p1", Status: domain.StatusCurrent}}, m.err
}

func (m *MockService) CheckAnswer(ctx context.Context, req skillflow.AnswerRequest) (domain.AnswerVerdict, error) {
	m.answerReq = req
	return domain.AnswerVerdict{IsCorrect: false, Explanation: "Channels are typed."}, m.err
}

func (m *MockService) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	if r, ok := m.runs[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
}

func newTestHandler(t *testing.T, svc Service, opts ...Option) http.Handler {
	t.Helper()
	h, err := NewHandler(svc, opts...)
	require.NoError(t, err)
	return h
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/generate-roadmap"))
}

func TestGenerateRoadmap(t *testing.T) {
	h := newTestHandler(t, newMockService())

	w := do(h, http.MethodPost, "/generate-roadmap", `{"topic":"Go"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "new-Go", body["roadmap_id"])
	assert.Equal(t, true, body["approved"])
	assert.Equal(t, "run-x", body["run_id"])
}

func TestGenerateRoadmap_BadRequests(t *testing.T) {
	for name, opts := range map[string][]Option{
		"spec validation":   nil,
		"struct validation": {WithSpecValidation(false)},
	} {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(t, newMockService(), opts...)

			w := do(h, http.MethodPost, "/generate-roadmap", `{}`)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeBody(t, w)["error"])

			w = do(h, http.MethodPost, "/generate-roadmap", `{"topic":`)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGenerateRoadmap_Failure(t *testing.T) {
	svc := newMockService()
	svc.err = &domain.GenerationError{Loop: domain.LoopRoadmap, Iteration: 1, Err: errors.New("upstream 500")}
	h := newTestHandler(t, svc)

	w := do(h, http.MethodPost, "/generate-roadmap", `{"topic":"Go"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "upstream 500")
}

func TestCheckAnswer_BodyTooLarge(t *testing.T) {
	body := fmt.Sprintf(`{"question":"q","answer":"a","lessonContent":%q}`, strings.Repeat("x", MaxBodySize))
	for name, opts := range map[string][]Option{
		"spec validation":   nil,
		"struct validation": {WithSpecValidation(false)},
	} {
		t.Run(name, func(t *testing.T) {
			svc := newMockService()
			h := newTestHandler(t, svc, opts...)

			w := do(h, http.MethodPost, "/check-answer", body)
			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
			assert.Empty(t, svc.answerReq.LessonContent)
		})
	}
}

func TestRoadmaps(t *testing.T) {
	h := newTestHandler(t, newMockService())

	w := do(h, http.MethodGet, "/roadmaps", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["roadmaps"], 1)

	w = do(h, http.MethodGet, "/roadmaps/r1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Go", decodeBody(t, w)["topic"])

	w = do(h, http.MethodGet, "/roadmaps/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoadmaps_EmptyListIsArray(t *testing.T) {
	svc := newMockService()
	svc.roadmaps = nil
	w := do(newTestHandler(t, svc), http.MethodGet, "/roadmaps", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roadmaps":[]}`, w.Body.String())
}

func TestGenerateLesson(t *testing.T) {
	svc := newMockService()
	h := newTestHandler(t, svc)

	w := do(h, http.MethodPost, "/lesson", `{"roadmapId":"r1","roadmapTitle":"Go","sectionTitle":"Basics","conceptTitle":"Concurrency","conceptId":"c1","lessonId":"l1","learnedSummary":"types"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "Lesson generated successfully", body["message"])
	assert.Equal(t, "l1", body["lesson_id"])
	assert.Equal(t, false, body["approved"])
	assert.Equal(t, "types", svc.lessonReq.LearnedSummary)
	assert.Equal(t, "Concurrency", svc.lessonReq.ConceptTitle)

	w = do(h, http.MethodPost, "/lesson", `{"roadmapId":"r1","sectionTitle":"Basics","conceptTitle":"Concurrency","conceptId":"c1","lessonId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(h, http.MethodPost, "/lesson", `{"roadmapId":"r1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLesson(t *testing.T) {
	h := newTestHandler(t, newMockService())

	w := do(h, http.MethodGet, "/lessons/l1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Goroutines", decodeBody(t, w)["title"])

	w = do(h, http.MethodGet, "/lessons/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlanLessons(t *testing.T) {
	svc := newMockService()
	h := newTestHandler(t, svc)

	w := do(h, http.MethodPost, "/plan-lessons", `{"roadmap_topic":"Go","section_title":"Basics","concept_title":"Types","concept_id":"c1","roadmap_id":"r1","section_id":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Lessons planned successfully", decodeBody(t, w)["message"])
	assert.Equal(t, skillflow.PlanRequest{
		RoadmapID: "r1", SectionID: "s1", ConceptID: "c1",
		Topic: "Go", SectionTitle: "Basics", ConceptTitle: "Types",
	}, svc.planReq)
}

func TestCheckAnswer(t *testing.T) {
	svc := newMockService()
	h := newTestHandler(t, svc)

	w := do(h, http.MethodPost, "/check-answer", `{"question":"What is a channel?","answer":"A pipe","lessonContent":"# Channels"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"is_correct":false,"additional_explanation":"Channels are typed."}`, w.Body.String())
	assert.Equal(t, "A pipe", svc.answerReq.Answer)

	svc.err = fmt.Errorf("%w: answer is required", skillflow.ErrInvalidRequest)
	w = do(newTestHandler(t, svc, WithSpecValidation(false)), http.MethodPost, "/check-answer", `{"question":"q","answer":"a","lessonContent":"c"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun(t *testing.T) {
	h := newTestHandler(t, newMockService())

	w := do(h, http.MethodGet, "/runs/run1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "roadmap", decodeBody(t, w)["loop"])

	w = do(h, http.MethodGet, "/runs/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t, newMockService(), WithAllowedOrigins("http://localhost:3000"))

	req := httptest.NewRequest(http.MethodOptions, "/generate-roadmap", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpsEndpoints(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("skillflow_loop_runs_total 0\n"))
	})
	h := newTestHandler(t, newMockService(), WithMetrics(metrics))

	w := do(h, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(h, http.MethodGet, "/info", "")
	info := decodeBody(t, w)
	assert.Equal(t, skillflow.Version, info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = do(h, http.MethodGet, "/openapi.yaml", "")
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = do(h, http.MethodGet, "/metrics", "")
	assert.Contains(t, w.Body.String(), "skillflow_loop_runs_total")
}

func TestMetricsNotMountedByDefault(t *testing.T) {
	w := do(newTestHandler(t, newMockService()), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
