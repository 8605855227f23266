package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/lumoworks/lumo/pkg/automation"
	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/persistence"
	"github.com/lumoworks/lumo/pkg/pipeline"
	"github.com/lumoworks/lumo/pkg/progress"
	"github.com/lumoworks/lumo/pkg/providers"
	"github.com/lumoworks/lumo/pkg/registry"
	"github.com/lumoworks/lumo/pkg/services"
	"github.com/lumoworks/lumo/pkg/store"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// VoiceCatalog lists the speech provider's available voices.
type VoiceCatalog interface {
	Voices(ctx context.Context) ([]providers.Voice, error)
}

// APIHandlers carries the wired collaborators for every route.
type APIHandlers struct {
	pipeline   *pipeline.Pipeline
	engine     *automation.Engine
	chat       *services.Chat
	completion services.Completer
	voices     VoiceCatalog
	artifacts  *store.ArtifactStore
	registry   persistence.Store
	actions    *registry.Registry
	progress   *progress.Channel
	validator  *validator.Validate
	logger     *slog.Logger
}

func NewAPIHandlers(
	pipe *pipeline.Pipeline,
	engine *automation.Engine,
	chat *services.Chat,
	completion services.Completer,
	voices VoiceCatalog,
	artifacts *store.ArtifactStore,
	registryStore persistence.Store,
	actions *registry.Registry,
	progressChannel *progress.Channel,
	validate *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		pipeline:   pipe,
		engine:     engine,
		chat:       chat,
		completion: completion,
		voices:     voices,
		artifacts:  artifacts,
		registry:   registryStore,
		actions:    actions,
		progress:   progressChannel,
		validator:  validate,
		logger:     logger,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK

	storeErr := h.registry.HealthCheck(c.Context())
	if storeErr != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checkers": fiber.Map{
			"registry": storeErr == nil,
		},
	})
}

// pageParams parses page/limit query parameters with bounds.
func pageParams(c fiber.Ctx) (int, int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}

	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit
}

// runTask executes a pipeline task synchronously and reports the
// terminal task plus its final stage payload.
func (h *APIHandlers) runTask(c fiber.Ctx, kind models.TaskKind, params pipeline.Params) (*models.Task, error) {
	taskID := c.Query("taskId")

	task, err := h.pipeline.Run(c.Context(), kind, params, taskID)
	if err != nil {
		if task != nil {
			return task, err
		}

		return nil, err
	}

	return task, nil
}

// lastPayload returns the payload of the task's final successful stage.
func lastPayload(task *models.Task) any {
	for i := len(task.StageResults) - 1; i >= 0; i-- {
		if task.StageResults[i].Success {
			return task.StageResults[i].Payload
		}
	}

	return nil
}

// GetTask exposes the tracked state of one task.
func (h *APIHandlers) GetTask(c fiber.Ctx) error {
	task, ok := h.pipeline.Task(c.Params("id"))
	if !ok {
		return notFound(c, "task not found")
	}

	return c.JSON(task)
}

// listArtifacts serves the shared list shape for image, video and code
// catalogs.
func (h *APIHandlers) listArtifacts(c fiber.Ctx, category models.ArtifactCategory, key string) error {
	page, limit := pageParams(c)

	artifacts, total, err := h.artifacts.List(c.Context(), category, page, limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		key:          artifacts,
		"pagination": newPagination(page, limit, total),
	})
}

func (h *APIHandlers) getArtifact(c fiber.Ctx, category models.ArtifactCategory) error {
	artifact, err := h.artifacts.Meta(c.Context(), category, c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(artifact)
}

func (h *APIHandlers) deleteArtifact(c fiber.Ctx, category models.ArtifactCategory) error {
	if err := h.artifacts.Delete(c.Context(), category, c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
