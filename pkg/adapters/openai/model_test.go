package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/skillflow/pkg/adapters/openai"
	"github.com/aretw0/skillflow/pkg/domain"
)

// recordedRequest keeps the parts of a chat completion request the tests inspect.
type recordedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema *struct {
			Name   string          `json:"name"`
			Schema json.RawMessage `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

// fakeLLM serves /chat/completions with queued answers and records every request.
type fakeLLM struct {
	mu       sync.Mutex
	answers  []string
	requests []recordedRequest
	status   int
}

func (f *fakeLLM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	var req recordedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.requests = append(f.requests, req)

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
		return
	}

	content := "{}"
	if len(f.answers) > 0 {
		content, f.answers = f.answers[0], f.answers[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []goopenai.ChatCompletionChoice{{
			Index:        0,
			Message:      goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: content},
			FinishReason: goopenai.FinishReasonStop,
		}},
	})
}

func (f *fakeLLM) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newModel(t *testing.T, answers ...string) (*openai.Model, *fakeLLM) {
	t.Helper()
	fake := &fakeLLM{answers: answers}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := openai.New(openai.Config{BaseURL: srv.URL + "/v1", APIKey: "test", Model: "llama-test"})
	require.NoError(t, err)
	return openai.NewModel(client, nil), fake
}

const roadmapJSON = `{"topic":"Rust","sections":[{"title":"Intro","description":"Why Rust","concepts":[{"title":"History","description":"Where Rust came from"}]}]}`

func TestGenerateRoadmap(t *testing.T) {
	model, fake := newModel(t, "```json\n"+roadmapJSON+"\n```")

	roadmap, err := model.GenerateRoadmap(context.Background(), "Rust", nil)
	require.NoError(t, err)

	assert.Equal(t, "Rust", roadmap.Topic)
	require.Len(t, roadmap.Sections, 1)
	assert.Equal(t, "History", roadmap.Sections[0].Concepts[0].Title)

	req := fake.last()
	assert.Equal(t, "llama-test", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "Rust", req.Messages[1].Content)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, string(goopenai.ChatCompletionResponseFormatTypeJSONObject), req.ResponseFormat.Type)
}

func TestGenerateRoadmap_RevisionReplaysPriorDraft(t *testing.T) {
	model, fake := newModel(t, roadmapJSON)
	prior := &domain.Roadmap{Topic: "Rust", Sections: []domain.Section{{Title: "Only section"}}}

	_, err := model.GenerateRoadmap(context.Background(), "Rust", &domain.Revision[domain.Roadmap]{Prior: prior, Feedback: "add more sections"})
	require.NoError(t, err)

	req := fake.last()
	require.Len(t, req.Messages, 4)
	assert.Equal(t, goopenai.ChatMessageRoleAssistant, req.Messages[2].Role)
	assert.Contains(t, req.Messages[2].Content, "Only section")
	assert.Equal(t, goopenai.ChatMessageRoleUser, req.Messages[3].Role)
	assert.Contains(t, req.Messages[3].Content, "add more sections")
}

func TestGenerateRoadmap_InvalidOutput(t *testing.T) {
	model, _ := newModel(t, "not json", `{"topic":"Rust","sections":[]}`)

	_, err := model.GenerateRoadmap(context.Background(), "Rust", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	_, err = model.GenerateRoadmap(context.Background(), "Rust", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact, "a roadmap needs sections")
}

func TestReviewRoadmap_ReplaysTranscript(t *testing.T) {
	model, fake := newModel(t, `{"approved":false,"feedback":"split section 2"}`)

	review, err := model.ReviewRoadmap(context.Background(), []domain.Turn{
		{Role: domain.RoleGenerator, Content: roadmapJSON},
		{Role: domain.RoleReviewer, Content: `{"approved":false,"feedback":"x"}`},
		{Role: domain.RoleGenerator, Content: roadmapJSON},
	})
	require.NoError(t, err)
	assert.False(t, review.Approved)
	assert.Equal(t, "split section 2", review.Feedback)

	roles := []string{}
	for _, m := range fake.last().Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []string{"system", "assistant", "user", "assistant"}, roles)
}

func TestGenerateLesson(t *testing.T) {
	answer := `{
		"content": "## Borrowing\nReferences let you use a value without owning it.",
		"exercises": [
			{"type":"mcq","exercise":{"question":"Which is a shared borrow?","answer_options":["&x","&mut x"],"answer_index":0}},
			{"type":"question","exercise":{"question":"Why can only one mutable borrow exist?"}}
		],
		"summary": "The learner knows shared and mutable borrows.",
		"is_final": true
	}`
	model, fake := newModel(t, answer)

	lesson, err := model.GenerateLesson(context.Background(), domain.LessonContext{
		Roadmap:      domain.Roadmap{Topic: "Rust"},
		SectionTitle: "Ownership",
		ConceptTitle: "Borrowing",
		LessonTitle:  "Shared and mutable borrows",
		Objectives:   []string{"Tell & from &mut"},
	}, nil)
	require.NoError(t, err)

	assert.True(t, lesson.IsFinal)
	require.Len(t, lesson.Exercises, 2)
	mcq, ok := lesson.Exercises[0].(domain.MultipleChoice)
	require.True(t, ok)
	assert.Equal(t, 0, mcq.CorrectIndex)
	assert.IsType(t, domain.OpenEnded{}, lesson.Exercises[1])

	prompt := fake.last().Messages[1].Content
	assert.Contains(t, prompt, "Current Concept: Borrowing")
	assert.Contains(t, prompt, "- Tell & from &mut")
}

func TestGenerateLesson_RevisionAndInvalidExercise(t *testing.T) {
	bad := `{"content":"text","exercises":[{"type":"mcq","exercise":{"question":"q","answer_options":["a","b"],"answer_index":5}}],"summary":"s","is_final":false}`
	model, fake := newModel(t, bad)

	_, err := model.GenerateLesson(context.Background(), domain.LessonContext{LessonTitle: "L"}, &domain.Revision[domain.Lesson]{
		Prior:    &domain.Lesson{Content: "old content"},
		Feedback: "needs examples",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	msgs := fake.last().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "old content", msgs[2].Content)
	assert.Contains(t, msgs[3].Content, "Please improve the lesson")
}

func TestReviewLesson(t *testing.T) {
	model, fake := newModel(t, `{"approved":true,"feedback":""}`)

	review, err := model.ReviewLesson(context.Background(), "Select", []string{"Channels", "Select"}, "## Select")
	require.NoError(t, err)
	assert.True(t, review.Approved)
	assert.Contains(t, fake.last().Messages[1].Content, "Current Lesson: Select")
}

func TestPlanLessons(t *testing.T) {
	model, _ := newModel(t,
		`{"lessons":[{"title":"What is a goroutine","description":"Basics","learning_objectives":["Start a goroutine"]}]}`,
		`{"lessons":[]}`,
		`{"lessons":[{"title":"","description":"x","learning_objectives":["y"]}]}`,
	)
	ctx := context.Background()

	plans, err := model.PlanLessons(ctx, "Go", "Concurrency", "Goroutines")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, []string{"Start a goroutine"}, plans[0].Objectives)

	_, err = model.PlanLessons(ctx, "Go", "Concurrency", "Goroutines")
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact, "empty plan")

	_, err = model.PlanLessons(ctx, "Go", "Concurrency", "Goroutines")
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact, "untitled lesson")
}

func TestCheckAnswer_UsesCheckerClient(t *testing.T) {
	mainFake := &fakeLLM{}
	mainSrv := httptest.NewServer(mainFake)
	defer mainSrv.Close()
	checkFake := &fakeLLM{answers: []string{`{"is_correct":true,"additional_explanation":"You got it."}`}}
	checkSrv := httptest.NewServer(checkFake)
	defer checkSrv.Close()

	mainClient, err := openai.New(openai.Config{BaseURL: mainSrv.URL + "/v1", Model: "llama"})
	require.NoError(t, err)
	checkClient, err := openai.New(openai.Config{BaseURL: checkSrv.URL + "/v1", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	verdict, err := openai.NewModel(mainClient, checkClient).CheckAnswer(context.Background(), "What is 2+2?", "4", "2+2 is 4")
	require.NoError(t, err)
	assert.True(t, verdict.IsCorrect)
	assert.Equal(t, "You got it.", verdict.Explanation)

	assert.Empty(t, mainFake.requests)
	require.Len(t, checkFake.requests, 1)
	assert.Equal(t, "gpt-4o-mini", checkFake.requests[0].Model)
}

func TestUpstreamErrorPropagates(t *testing.T) {
	model, fake := newModel(t)
	fake.status = http.StatusInternalServerError

	_, err := model.ReviewLesson(context.Background(), "t", nil, "c")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidArtifact)
	assert.Len(t, fake.requests, 1, "no retries")
}

func TestJSONSchemaMode(t *testing.T) {
	fake := &fakeLLM{answers: []string{`{"approved":true,"feedback":"ok"}`}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := openai.New(openai.Config{BaseURL: srv.URL + "/v1", Model: "gpt-4o"}, openai.WithJSONSchema(true))
	require.NoError(t, err)

	_, err = openai.NewModel(client, nil).ReviewLesson(context.Background(), "t", nil, "c")
	require.NoError(t, err)

	format := fake.last().ResponseFormat
	require.NotNil(t, format)
	assert.Equal(t, string(goopenai.ChatCompletionResponseFormatTypeJSONSchema), format.Type)
	require.NotNil(t, format.JSONSchema)
	assert.Equal(t, "review_lesson", format.JSONSchema.Name)
	assert.Contains(t, string(format.JSONSchema.Schema), `"approved"`)
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := openai.New(openai.Config{})
	assert.Error(t, err)
}
