package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skillflow"
	"github.com/aretw0/skillflow/pkg/domain"
)

type mockService struct {
	err       error
	lessonReq skillflow.LessonRequest
	planReq   skillflow.PlanRequest
}

func (m *mockService) GenerateRoadmap(ctx context.Context, topic string) (*skillflow.RoadmapResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &skillflow.RoadmapResult{
		Roadmap:  &domain.Roadmap{ID: "r1", Topic: topic},
		Approved: true,
		RunID:    "run-1",
	}, nil
}

func (m *mockService) ListRoadmaps(ctx context.Context) ([]domain.Roadmap, error) {
	return []domain.Roadmap{{ID: "r1", Topic: "Go"}}, m.err
}

func (m *mockService) GenerateLesson(ctx context.Context, req skillflow.LessonRequest) (*skillflow.LessonResult, error) {
	m.lessonReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &skillflow.LessonResult{Lesson: &domain.LessonRecord{ID: req.LessonID}, RunID: "run-2"}, nil
}

func (m *mockService) PlanLessons(ctx context.Context, req skillflow.PlanRequest) ([]domain.LessonRecord, error) {
	m.planReq = req
	return []domain.LessonRecord{{ID: "l1"}}, m.err
}

func (m *mockService) CheckAnswer(ctx context.Context, req skillflow.AnswerRequest) (domain.AnswerVerdict, error) {
	return domain.AnswerVerdict{IsCorrect: req.Answer == "42"}, m.err
}

// call sends a JSON-RPC request through the protocol server and returns the decoded result.
func call(t *testing.T, s *Server, method string, params any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := s.MCPServer().HandleMessage(context.Background(), raw)
	out, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Nil(t, decoded["error"], string(out))
	result, ok := decoded["result"].(map[string]any)
	require.True(t, ok, string(out))
	return result
}

func TestServer_ListTools(t *testing.T) {
	s := NewServer(&mockService{})
	result := call(t, s, "tools/list", map[string]any{})

	var names []string
	for _, tool := range result["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{"generate_roadmap", "plan_lessons", "generate_lesson", "check_answer"}, names)
}

func TestServer_GenerateRoadmapTool(t *testing.T) {
	s := NewServer(&mockService{})
	result := call(t, s, "tools/call", map[string]any{
		"name":      "generate_roadmap",
		"arguments": map[string]any{"topic": "Go"},
	})

	assert.NotEqual(t, true, result["isError"])
	structured, ok := result["structuredContent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-1", structured["run_id"])
	assert.Equal(t, true, structured["approved"])
}

func TestServer_ToolErrorIsReported(t *testing.T) {
	s := NewServer(&mockService{err: errors.New("model unavailable")})
	result := call(t, s, "tools/call", map[string]any{
		"name":      "generate_roadmap",
		"arguments": map[string]any{"topic": "Go"},
	})

	assert.Equal(t, true, result["isError"])
	content := result["content"].([]any)
	require.NotEmpty(t, content)
	assert.Contains(t, content[0].(map[string]any)["text"], "model unavailable")
}

func TestServer_ArgumentMapping(t *testing.T) {
	svc := &mockService{}
	s := NewServer(svc)
	ctx := context.Background()

	res, err := s.handleGenerateLesson(ctx, mcp.CallToolRequest{}, GenerateLessonArgs{
		RoadmapID:      "r1",
		LessonID:       "l1",
		ConceptID:      "c1",
		SectionTitle:   "Basics",
		ConceptTitle:   "Types",
		LearnedSummary: "variables",
	})
	require.NoError(t, err)
	assert.Equal(t, "l1", res.Lesson.ID)
	assert.Equal(t, skillflow.LessonRequest{
		RoadmapID: "r1", LessonID: "l1", ConceptID: "c1",
		SectionTitle: "Basics", ConceptTitle: "Types", LearnedSummary: "variables",
	}, svc.lessonReq)

	_, err = s.handlePlanLessons(ctx, mcp.CallToolRequest{}, PlanLessonsArgs{RoadmapID: "r1", SectionID: "s1", ConceptID: "c1", Topic: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "Go", svc.planReq.Topic)
	assert.Equal(t, "s1", svc.planReq.SectionID)

	verdict, err := s.handleCheckAnswer(ctx, mcp.CallToolRequest{}, CheckAnswerArgs{Question: "q", Answer: "42", LessonContent: "c"})
	require.NoError(t, err)
	assert.True(t, verdict.IsCorrect)
}

func TestServer_RoadmapsResource(t *testing.T) {
	s := NewServer(&mockService{})
	result := call(t, s, "resources/read", map[string]any{"uri": RoadmapsURI})

	contents := result["contents"].([]any)
	require.Len(t, contents, 1)
	text := contents[0].(map[string]any)["text"].(string)

	var roadmaps []domain.Roadmap
	require.NoError(t, json.Unmarshal([]byte(text), &roadmaps))
	require.Len(t, roadmaps, 1)
	assert.Equal(t, "Go", roadmaps[0].Topic)
}
