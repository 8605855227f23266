// Package pipeline executes multi-stage content-generation tasks:
// images, videos, scripts, code and automation runs. Stages run
// strictly in order and report cumulative progress over the progress
// channel; subscribers always observe a non-decreasing percentage.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumoworks/lumo/pkg/automation"
	"github.com/lumoworks/lumo/pkg/media"
	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/progress"
	"github.com/lumoworks/lumo/pkg/providers"
	"github.com/lumoworks/lumo/pkg/store"
)

const tracerName = "lumo.pipeline"

// defaultItemPause spaces out batch items to stay inside provider rate
// limits.
const defaultItemPause = time.Second

// Shared stage anchors for kinds with one primary output: work started,
// output generated, artifact stored.
const (
	progressStart     = 10
	progressGenerated = 60
	progressStored    = 90
)

// CompletionProvider generates text from chat-style prompts.
type CompletionProvider interface {
	Complete(ctx context.Context, req providers.CompletionRequest) (string, error)
}

// ImageProvider generates images and downloads their bytes.
type ImageProvider interface {
	Generate(ctx context.Context, req providers.ImageRequest) (*providers.ImageResult, error)
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// SpeechProvider synthesizes narration audio.
type SpeechProvider interface {
	Synthesize(ctx context.Context, req providers.SpeechRequest) (io.ReadCloser, error)
}

// Muxer assembles slide videos.
type Muxer interface {
	Mux(ctx context.Context, in media.MuxInput) error
}

// Params carries the union of task inputs. Each kind validates the
// fields it needs and ignores the rest.
type Params struct {
	// images
	Prompt  string   `json:"prompt"`
	Prompts []string `json:"prompts"`
	Size    string   `json:"size"`
	Quality string   `json:"quality"`
	Style   string   `json:"style"`

	// videos and scripts
	Topic       string `json:"topic"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspect_ratio"`
	VoiceID     string `json:"voice_id"`

	// code
	Description     string `json:"description"`
	Language        string `json:"language"`
	Framework       string `json:"framework"`
	Complexity      string `json:"complexity"`
	IncludeTests    bool   `json:"include_tests"`
	IncludeComments bool   `json:"include_comments"`

	// automation runs
	AutomationID string `json:"automation_id"`
}

// Config wires the pipeline's collaborators.
type Config struct {
	Completion CompletionProvider
	Image      ImageProvider
	Speech     SpeechProvider
	Artifacts  *store.ArtifactStore
	Muxer      Muxer
	Progress   *progress.Channel
	Engine     *automation.Engine
	Logger     *slog.Logger

	// ItemPause overrides the inter-item pause in batch stages.
	ItemPause time.Duration

	// WorkDir is the root for per-task scratch directories.
	WorkDir string
}

// Pipeline runs tasks and tracks their state in an in-process registry.
type Pipeline struct {
	completion CompletionProvider
	image      ImageProvider
	speech     SpeechProvider
	artifacts  *store.ArtifactStore
	muxer      Muxer
	progress   *progress.Channel
	engine     *automation.Engine
	logger     *slog.Logger
	pause      time.Duration
	workDir    string

	mu    sync.RWMutex
	tasks map[string]*models.Task
}

func New(cfg Config) *Pipeline {
	pause := cfg.ItemPause
	if pause == 0 {
		pause = defaultItemPause
	}

	return &Pipeline{
		completion: cfg.Completion,
		image:      cfg.Image,
		speech:     cfg.Speech,
		artifacts:  cfg.Artifacts,
		muxer:      cfg.Muxer,
		progress:   cfg.Progress,
		engine:     cfg.Engine,
		logger:     cfg.Logger,
		pause:      pause,
		workDir:    cfg.WorkDir,
		tasks:      make(map[string]*models.Task),
	}
}

// Task returns a snapshot of a tracked task.
func (p *Pipeline) Task(id string) (*models.Task, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	task, ok := p.tasks[id]
	if !ok {
		return nil, false
	}

	snapshot := *task
	snapshot.StageResults = append([]models.StageResult(nil), task.StageResults...)

	return &snapshot, true
}

// Run executes one task to completion. Validation failures are
// reported before the task is registered and before any progress event.
// The returned task is terminal: completed, completed_with_errors when
// contained item failures occurred, or failed.
func (p *Pipeline) Run(ctx context.Context, kind models.TaskKind, params Params, taskID string) (*models.Task, error) {
	if !kind.Valid() {
		return nil, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown task kind %q", kind)}
	}

	if err := validateParams(kind, params); err != nil {
		return nil, err
	}

	if taskID == "" {
		taskID = uuid.New().String()
	}

	task := models.NewTask(taskID, kind)

	p.mu.Lock()
	p.tasks[taskID] = task
	p.mu.Unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("lumo.task.id", taskID),
		attribute.String("lumo.task.kind", string(kind)),
	))
	defer span.End()

	p.update(task, func(t *models.Task) { t.Status = models.TaskRunning })

	logger := p.logger.With("task_id", taskID, "kind", kind)
	logger.InfoContext(ctx, "task started")

	message, err := p.runKind(ctx, task, params)
	if err != nil {
		p.update(task, func(t *models.Task) { t.Finish(models.TaskFailed) })
		p.progress.Fail(ctx, taskID, err.Error())

		span.SetAttributes(attribute.String("lumo.task.status", string(models.TaskFailed)))
		logger.ErrorContext(ctx, "task failed", "error", err)

		return p.snapshot(taskID), err
	}

	status := models.TaskCompleted

	p.update(task, func(t *models.Task) {
		for _, result := range t.StageResults {
			if !result.Success {
				status = models.TaskCompletedWithErrors

				break
			}
		}

		t.SetProgress(100)
		t.Finish(status)
	})

	p.progress.Done(ctx, taskID, message)

	span.SetAttributes(attribute.String("lumo.task.status", string(status)))
	logger.InfoContext(ctx, "task finished", "status", status)

	return p.snapshot(taskID), nil
}

func (p *Pipeline) runKind(ctx context.Context, task *models.Task, params Params) (string, error) {
	switch task.Kind {
	case models.TaskImageSingle:
		return p.runImageSingle(ctx, task, params)
	case models.TaskImageBatch:
		return p.runImageBatch(ctx, task, params)
	case models.TaskVideoAuto:
		return p.runVideoAuto(ctx, task, params)
	case models.TaskScriptOnly:
		return p.runScriptOnly(ctx, task, params)
	case models.TaskCodeGenerate:
		return p.runCodeGenerate(ctx, task, params)
	case models.TaskAutomationRun:
		return p.runAutomationRun(ctx, task, params)
	}

	return "", fmt.Errorf("unhandled task kind %q", task.Kind)
}

func (p *Pipeline) snapshot(id string) *models.Task {
	task, _ := p.Task(id)

	return task
}

func (p *Pipeline) update(task *models.Task, fn func(*models.Task)) {
	p.mu.Lock()
	fn(task)
	p.mu.Unlock()
}

// emit advances the task's cumulative progress and publishes it. The
// published percentage reflects the post-clamp value, so subscribers
// never see it decrease.
func (p *Pipeline) emit(ctx context.Context, task *models.Task, percent float64, message string) {
	var current float64

	p.mu.Lock()
	task.SetProgress(percent)
	current = task.Progress
	p.mu.Unlock()

	p.progress.Emit(ctx, task.ID, current, message)
}

func (p *Pipeline) appendResult(task *models.Task, result models.StageResult) {
	result.Timestamp = time.Now().UTC()

	p.update(task, func(t *models.Task) {
		t.CurrentStage = result.Index
		t.AppendResult(result)
	})
}

// pauseBetweenItems sleeps between batch items unless the context ends
// first.
func (p *Pipeline) pauseBetweenItems(ctx context.Context) error {
	timer := time.NewTimer(p.pause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
