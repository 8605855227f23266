package web

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/pipeline"
	"github.com/lumoworks/lumo/pkg/services"
)

// GenerateImage runs the single-image pipeline to completion.
func (h *APIHandlers) GenerateImage(c fiber.Ctx) error {
	var req GenerateImageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.N > 1 {
		prompts := make([]string, req.N)
		for i := range prompts {
			prompts[i] = req.Prompt
		}

		return h.generateBatch(c, GenerateImageBatchRequest{
			Prompts: prompts,
			Size:    req.Size,
			Quality: req.Quality,
			Style:   req.Style,
		})
	}

	task, err := h.runTask(c, models.TaskImageSingle, pipeline.Params{
		Prompt:  req.Prompt,
		Size:    req.Size,
		Quality: req.Quality,
		Style:   req.Style,
	})
	if err != nil {
		return taskError(c, taskIDOf(task), err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"taskId":  task.ID,
		"image":   lastPayload(task),
	})
}

// GenerateImageBatch runs the batch pipeline. Partial success still
// returns 200 with per-item results.
func (h *APIHandlers) GenerateImageBatch(c fiber.Ctx) error {
	var req GenerateImageBatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.generateBatch(c, req)
}

func (h *APIHandlers) generateBatch(c fiber.Ctx, req GenerateImageBatchRequest) error {
	task, err := h.runTask(c, models.TaskImageBatch, pipeline.Params{
		Prompts: req.Prompts,
		Size:    req.Size,
		Quality: req.Quality,
		Style:   req.Style,
	})
	if err != nil {
		return taskError(c, taskIDOf(task), err)
	}

	successful := 0
	failed := 0
	items := make([]fiber.Map, 0, len(task.StageResults))

	for _, result := range task.StageResults {
		if result.Success {
			successful++

			items = append(items, fiber.Map{"success": true, "image": result.Payload})
		} else {
			failed++

			items = append(items, fiber.Map{"success": false, "error": result.Error})
		}
	}

	return c.JSON(fiber.Map{
		"taskId":     task.ID,
		"successful": successful,
		"failed":     failed,
		"results":    items,
	})
}

func (h *APIHandlers) ListImages(c fiber.Ctx) error {
	return h.listArtifacts(c, models.ArtifactImage, "images")
}

func (h *APIHandlers) GetImage(c fiber.Ctx) error {
	return h.getArtifact(c, models.ArtifactImage)
}

func (h *APIHandlers) DeleteImage(c fiber.Ctx) error {
	return h.deleteArtifact(c, models.ArtifactImage)
}

// GenerateVideoAuto runs the full topic-to-video pipeline.
func (h *APIHandlers) GenerateVideoAuto(c fiber.Ctx) error {
	var req GenerateVideoRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.runTask(c, models.TaskVideoAuto, pipeline.Params{
		Topic:       req.Topic,
		Duration:    req.Duration,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		Quality:     req.Quality,
		VoiceID:     req.VoiceID,
	})
	if err != nil {
		return taskError(c, taskIDOf(task), err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"taskId":  task.ID,
		"status":  task.Status,
		"video":   lastPayload(task),
	})
}

// GenerateScript runs the script-only pipeline.
func (h *APIHandlers) GenerateScript(c fiber.Ctx) error {
	var req GenerateScriptRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.runTask(c, models.TaskScriptOnly, pipeline.Params{
		Topic:    req.Topic,
		Duration: req.Duration,
		Style:    req.Style,
	})
	if err != nil {
		return taskError(c, taskIDOf(task), err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"taskId":  task.ID,
		"result":  lastPayload(task),
	})
}

// ListVoices exposes the speech provider's voice catalog.
func (h *APIHandlers) ListVoices(c fiber.Ctx) error {
	voices, err := h.voices.Voices(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"voices": voices})
}

func (h *APIHandlers) ListVideos(c fiber.Ctx) error {
	return h.listArtifacts(c, models.ArtifactVideo, "videos")
}

func (h *APIHandlers) GetVideo(c fiber.Ctx) error {
	return h.getArtifact(c, models.ArtifactVideo)
}

func (h *APIHandlers) DeleteVideo(c fiber.Ctx) error {
	return h.deleteArtifact(c, models.ArtifactVideo)
}

// GenerateCode runs the code-generation pipeline.
func (h *APIHandlers) GenerateCode(c fiber.Ctx) error {
	var req GenerateCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.runTask(c, models.TaskCodeGenerate, pipeline.Params{
		Description:     req.Description,
		Language:        req.Language,
		Framework:       req.Framework,
		Complexity:      req.Complexity,
		IncludeTests:    req.IncludeTests,
		IncludeComments: req.IncludeComments,
	})
	if err != nil {
		return taskError(c, taskIDOf(task), err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"taskId":  task.ID,
		"code":    lastPayload(task),
	})
}

// ReviewCode returns a synchronous completion-backed review.
func (h *APIHandlers) ReviewCode(c fiber.Ctx) error {
	var req ReviewCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	review, err := services.ReviewCode(c.Context(), h.completion, req.Code, req.Language, req.ReviewType)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"review": review})
}

func (h *APIHandlers) ListCode(c fiber.Ctx) error {
	return h.listArtifacts(c, models.ArtifactCode, "code")
}

func (h *APIHandlers) GetCode(c fiber.Ctx) error {
	return h.getArtifact(c, models.ArtifactCode)
}

func (h *APIHandlers) DeleteCode(c fiber.Ctx) error {
	return h.deleteArtifact(c, models.ArtifactCode)
}

func taskIDOf(task *models.Task) string {
	if task == nil {
		return ""
	}

	return task.ID
}
