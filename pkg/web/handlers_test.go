package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoworks/lumo/pkg/automation"
	"github.com/lumoworks/lumo/pkg/channels/gochannel"
	"github.com/lumoworks/lumo/pkg/persistence/memory"
	"github.com/lumoworks/lumo/pkg/pipeline"
	"github.com/lumoworks/lumo/pkg/progress"
	"github.com/lumoworks/lumo/pkg/providers"
	"github.com/lumoworks/lumo/pkg/registry"
	"github.com/lumoworks/lumo/pkg/services"
	"github.com/lumoworks/lumo/pkg/store"
	"github.com/lumoworks/lumo/pkg/web"
)

type fakeCompletion struct {
	response string
	err      error
}

func (f *fakeCompletion) Complete(_ context.Context, _ providers.CompletionRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	return f.response, nil
}

type fakeImage struct {
	calls  int
	failOn map[int]error
}

func (f *fakeImage) Generate(_ context.Context, req providers.ImageRequest) (*providers.ImageResult, error) {
	f.calls++
	if err, ok := f.failOn[f.calls]; ok {
		return nil, err
	}

	return &providers.ImageResult{
		URL:           "https://img.example/" + fmt.Sprint(f.calls),
		RevisedPrompt: req.Prompt,
	}, nil
}

func (f *fakeImage) Download(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("png-bytes")), nil
}

type fakeVoices struct{}

func (fakeVoices) Voices(_ context.Context) ([]providers.Voice, error) {
	return []providers.Voice{
		{VoiceID: "voice-1", Name: "Aria", Category: "premade"},
	}, nil
}

type echoAction struct {
	value any
}

func (a *echoAction) Execute(_ context.Context, _ map[string]any, _ *slog.Logger) (any, error) {
	return a.value, nil
}

func (a *echoAction) Validate(_ context.Context) error { return nil }

type echoFactory struct{}

func (echoFactory) Create(config map[string]any) (registry.Action, error) {
	return &echoAction{value: config["value"]}, nil
}

func (echoFactory) ID() string          { return "echo" }
func (echoFactory) Name() string        { return "Echo" }
func (echoFactory) Description() string { return "Returns its configured value." }

func (echoFactory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

type rig struct {
	app    *fiber.App
	engine *automation.Engine
	image  *fakeImage
}

func setupTestApp(t *testing.T) *rig {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registryStore := memory.NewStore()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	progressChannel := progress.NewChannel(pub, sub, logger)

	artifacts, err := store.NewArtifactStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	actions := registry.NewRegistry(logger)
	actions.RegisterAction(echoFactory{})

	engine := automation.NewEngine(registryStore, actions, logger)

	completion := &fakeCompletion{response: "assistant reply"}
	image := &fakeImage{failOn: map[int]error{}}

	pipe := pipeline.New(pipeline.Config{
		Completion: completion,
		Image:      image,
		Artifacts:  artifacts,
		Progress:   progressChannel,
		Engine:     engine,
		Logger:     logger,
		ItemPause:  1,
		WorkDir:    t.TempDir(),
	})

	chat := services.NewChat(completion, registryStore, logger)

	handlers := web.NewAPIHandlers(
		pipe,
		engine,
		chat,
		completion,
		fakeVoices{},
		artifacts,
		registryStore,
		actions,
		progressChannel,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	app := fiber.New()

	images := app.Group("/api/images")
	images.Post("/generate", handlers.GenerateImage)
	images.Post("/generate-batch", handlers.GenerateImageBatch)
	images.Get("/", handlers.ListImages)
	images.Get("/:id", handlers.GetImage)
	images.Delete("/:id", handlers.DeleteImage)

	videos := app.Group("/api/videos")
	videos.Post("/generate-script", handlers.GenerateScript)
	videos.Get("/voices", handlers.ListVoices)

	code := app.Group("/api/code")
	code.Post("/generate", handlers.GenerateCode)
	code.Post("/review", handlers.ReviewCode)

	auto := app.Group("/api/automation")
	auto.Post("/create", handlers.CreateAutomation)
	auto.Get("/", handlers.ListAutomations)
	auto.Get("/actions", handlers.ListActionTypes)
	auto.Get("/:id", handlers.GetAutomation)
	auto.Put("/:id", handlers.UpdateAutomation)
	auto.Delete("/:id", handlers.DeleteAutomation)
	auto.Post("/:id/execute", handlers.ExecuteAutomation)
	auto.Post("/webhook/:id", handlers.TriggerWebhook)
	auto.Get("/:id/history", handlers.AutomationHistory)

	chatGroup := app.Group("/api/chat")
	chatGroup.Post("/message", handlers.SendChatMessage)
	chatGroup.Get("/conversations", handlers.ListConversations)
	chatGroup.Get("/conversations/:id", handlers.GetConversation)
	chatGroup.Delete("/conversations/:id", handlers.DeleteConversation)

	tasks := app.Group("/api/tasks")
	tasks.Get("/:id", handlers.GetTask)
	tasks.Get("/:id/events", handlers.StreamTaskEvents)

	return &rig{app: app, engine: engine, image: image}
}

func doJSON(t *testing.T, app *fiber.App, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 0})
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}

	return resp, decoded
}

func TestGenerateImage(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, body := doJSON(t, r.app, http.MethodPost, "/api/images/generate", web.GenerateImageRequest{
		Prompt: "a lighthouse at dusk",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["taskId"])

	image, ok := body["image"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, image["url"])
}

func TestGenerateImageValidation(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, _ := doJSON(t, r.app, http.MethodPost, "/api/images/generate", web.GenerateImageRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, r.app, http.MethodPost, "/api/images/generate", web.GenerateImageRequest{
		Prompt: "ok",
		Size:   "13x37",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateImageFanOut(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, body := doJSON(t, r.app, http.MethodPost, "/api/images/generate", web.GenerateImageRequest{
		Prompt: "a lighthouse at dusk",
		N:      3,
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 3, body["successful"], 0)
	assert.InDelta(t, 0, body["failed"], 0)
}

func TestGenerateImageBatchPartialFailure(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)
	r.image.failOn[2] = &providers.Error{Provider: "image", Kind: providers.FailureUnavailable, StatusCode: 503}

	resp, body := doJSON(t, r.app, http.MethodPost, "/api/images/generate-batch", web.GenerateImageBatchRequest{
		Prompts: []string{"one", "two", "three"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 2, body["successful"], 0)
	assert.InDelta(t, 1, body["failed"], 0)

	results, ok := body["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 3)
}

func TestGenerateScript(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, body := doJSON(t, r.app, http.MethodPost, "/api/videos/generate-script", web.GenerateScriptRequest{
		Topic:    "deep sea exploration",
		Duration: 15,
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["result"])
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, body := doJSON(t, r.app, http.MethodPost, "/api/code/generate", web.GenerateCodeRequest{
		Description: "an LRU cache",
		Language:    "go",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	code, ok := body["code"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, code["url"])
}

func TestReviewCode(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, body := doJSON(t, r.app, http.MethodPost, "/api/code/review", web.ReviewCodeRequest{
		Code:     "func main() {}",
		Language: "go",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "assistant reply", body["review"])
}

func TestListVoices(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, body := doJSON(t, r.app, http.MethodGet, "/api/videos/voices", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	voices, ok := body["voices"].([]any)
	require.True(t, ok)
	assert.Len(t, voices, 1)
}

func TestListImagesPagination(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	for range 3 {
		resp, _ := doJSON(t, r.app, http.MethodPost, "/api/images/generate", web.GenerateImageRequest{
			Prompt: "a sample prompt",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := doJSON(t, r.app, http.MethodGet, "/api/images/?page=1&limit=2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	images, ok := body["images"].([]any)
	require.True(t, ok)
	assert.Len(t, images, 2)

	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3, pagination["total"], 0)
	assert.InDelta(t, 2, pagination["pages"], 0)
}

func TestAutomationLifecycle(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	createBody := web.CreateAutomationRequest{
		Name:        "Morning digest",
		Description: "Echoes a value",
		Trigger:     web.TriggerRequest{Kind: "manual"},
		Actions: []web.ActionRequest{
			{Type: "echo", Name: "step-one", Config: map[string]any{"value": "hello"}},
		},
	}

	resp, created := doJSON(t, r.app, http.MethodPost, "/api/automation/create", createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "active", created["status"])

	resp, got := doJSON(t, r.app, http.MethodGet, "/api/automation/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Morning digest", got["name"])

	resp, listed := doJSON(t, r.app, http.MethodGet, "/api/automation/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 1, listed["total"], 0)

	resp, executed := doJSON(t, r.app, http.MethodPost, "/api/automation/"+id+"/execute", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", executed["status"])
	assert.NotEmpty(t, executed["executionId"])

	resp, history := doJSON(t, r.app, http.MethodGet, "/api/automation/"+id+"/history", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	executions, ok := history["executions"].([]any)
	require.True(t, ok)
	assert.Len(t, executions, 1)

	updateBody := web.UpdateAutomationRequest{
		Name:        "Evening digest",
		Description: "Echoes a value",
		Trigger:     web.TriggerRequest{Kind: "manual"},
		Actions:     createBody.Actions,
	}

	resp, updated := doJSON(t, r.app, http.MethodPut, "/api/automation/"+id, updateBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Evening digest", updated["name"])

	resp, _ = doJSON(t, r.app, http.MethodDelete, "/api/automation/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, r.app, http.MethodGet, "/api/automation/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAutomationValidation(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, _ := doJSON(t, r.app, http.MethodPost, "/api/automation/create", web.CreateAutomationRequest{
		Name:        "No actions",
		Description: "missing its action list",
		Trigger:     web.TriggerRequest{Kind: "manual"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, r.app, http.MethodPost, "/api/automation/create", web.CreateAutomationRequest{
		Name:        "Bad cron",
		Description: "broken schedule expression",
		Trigger:     web.TriggerRequest{Kind: "scheduled", Schedule: "not-a-cron"},
		Actions: []web.ActionRequest{
			{Type: "echo", Name: "step", Config: map[string]any{}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTriggerWebhook(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, created := doJSON(t, r.app, http.MethodPost, "/api/automation/create", web.CreateAutomationRequest{
		Name:        "Webhook bound",
		Description: "fires on incoming webhooks",
		Trigger:     web.TriggerRequest{Kind: "webhook"},
		Actions: []web.ActionRequest{
			{Type: "echo", Name: "step", Config: map[string]any{"value": 1}},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, _ := created["id"].(string)

	resp, fired := doJSON(t, r.app, http.MethodPost, "/api/automation/webhook/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", fired["status"])

	resp, manual := doJSON(t, r.app, http.MethodPost, "/api/automation/create", web.CreateAutomationRequest{
		Name:        "Manual only",
		Description: "not webhook triggered",
		Trigger:     web.TriggerRequest{Kind: "manual"},
		Actions: []web.ActionRequest{
			{Type: "echo", Name: "step", Config: map[string]any{"value": 1}},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	manualID, _ := manual["id"].(string)

	resp, _ = doJSON(t, r.app, http.MethodPost, "/api/automation/webhook/"+manualID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecuteDisabledAutomation(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	disabled := false

	resp, created := doJSON(t, r.app, http.MethodPost, "/api/automation/create", web.CreateAutomationRequest{
		Name:        "Paused",
		Description: "disabled on creation",
		Trigger:     web.TriggerRequest{Kind: "manual"},
		Actions: []web.ActionRequest{
			{Type: "echo", Name: "step", Config: map[string]any{}},
		},
		Enabled: &disabled,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, _ := created["id"].(string)

	resp, _ = doJSON(t, r.app, http.MethodPost, "/api/automation/"+id+"/execute", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListActionTypes(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, body := doJSON(t, r.app, http.MethodGet, "/api/automation/actions", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	actions, ok := body["actions"].([]any)
	require.True(t, ok)
	assert.Contains(t, actions, "echo")
}

func TestChatConversationFlow(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, first := doJSON(t, r.app, http.MethodPost, "/api/chat/message", web.ChatMessageRequest{
		Message: "hello there",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "assistant reply", first["reply"])

	conversationID, _ := first["conversationId"].(string)
	require.NotEmpty(t, conversationID)

	resp, second := doJSON(t, r.app, http.MethodPost, "/api/chat/message", web.ChatMessageRequest{
		Message:        "and again",
		ConversationID: conversationID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, conversationID, second["conversationId"])
	assert.InDelta(t, 4, second["messages"], 0)

	resp, listed := doJSON(t, r.app, http.MethodGet, "/api/chat/conversations", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 1, listed["total"], 0)

	resp, got := doJSON(t, r.app, http.MethodGet, "/api/chat/conversations/"+conversationID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, conversationID, got["id"])

	resp, _ = doJSON(t, r.app, http.MethodDelete, "/api/chat/conversations/"+conversationID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, r.app, http.MethodGet, "/api/chat/conversations/"+conversationID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, generated := doJSON(t, r.app, http.MethodPost, "/api/images/generate", web.GenerateImageRequest{
		Prompt: "a red door",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	taskID, _ := generated["taskId"].(string)

	resp, task := doJSON(t, r.app, http.MethodGet, "/api/tasks/"+taskID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", task["status"])
	assert.InDelta(t, 100, task["progress"], 0)

	resp, _ = doJSON(t, r.app, http.MethodGet, "/api/tasks/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamTaskEventsFinishedTask(t *testing.T) {
	t.Parallel()

	r := setupTestApp(t)

	resp, generated := doJSON(t, r.app, http.MethodPost, "/api/images/generate", web.GenerateImageRequest{
		Prompt: "a red door",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	taskID, _ := generated["taskId"].(string)
	require.NotEmpty(t, taskID)

	// a subscriber joining after the task finished gets a synthesized
	// terminal frame instead of a stream that never closes
	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+taskID+"/events", nil)

	resp, err := r.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(raw), "event: task-complete")
	assert.Contains(t, string(raw), `"task_id":"`+taskID+`"`)

	req = httptest.NewRequest(http.MethodGet, "/api/tasks/unknown/events", nil)

	resp, err = r.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
