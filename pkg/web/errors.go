package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/lumoworks/lumo/pkg/automation"
	"github.com/lumoworks/lumo/pkg/persistence"
	"github.com/lumoworks/lumo/pkg/pipeline"
	"github.com/lumoworks/lumo/pkg/providers"
	"github.com/lumoworks/lumo/pkg/store"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps domain errors onto HTTP statuses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case pipeline.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, automation.ErrTriggerInvalid):
		return badRequest(c, err.Error())

	case persistence.IsAutomationNotFound(err):
		return notFound(c, "automation not found")

	case persistence.IsConversationNotFound(err):
		return notFound(c, "conversation not found")

	case store.IsArtifactNotFound(err):
		return notFound(c, "artifact not found")

	case errors.Is(err, automation.ErrAutomationDisabled):
		problem := problems.NewStatusProblem(fiber.StatusConflict).
			WithInstance(c.Path()).
			WithType("automation_disabled").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		if status, kind, ok := providerStatus(err); ok {
			problem := problems.NewStatusProblem(status).
				WithInstance(c.Path()).
				WithType("provider_" + kind).
				WithDetail(err.Error())

			return c.Status(status).JSON(problem)
		}

		return internalError(c, err)
	}
}

// taskError renders the error body used by the task-producing endpoints
// so callers can correlate the failure with their progress stream.
func taskError(c fiber.Ctx, taskID string, err error) error {
	if pipeline.IsValidationError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation failed",
			"details": err.Error(),
		})
	}

	status := fiber.StatusInternalServerError
	if s, _, ok := providerStatus(err); ok {
		status = s
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   "task failed",
		"details": err.Error(),
		"taskId":  taskID,
	})
}

// providerStatus maps a normalized provider failure to an HTTP status.
func providerStatus(err error) (int, string, bool) {
	pe, ok := providers.AsError(err)
	if !ok {
		return 0, "", false
	}

	switch pe.Kind {
	case providers.FailureRateLimited:
		return fiber.StatusTooManyRequests, string(pe.Kind), true
	case providers.FailureInvalidRequest:
		return fiber.StatusBadRequest, string(pe.Kind), true
	case providers.FailureTimeout:
		return fiber.StatusGatewayTimeout, string(pe.Kind), true
	case providers.FailureUnavailable:
		return fiber.StatusBadGateway, string(pe.Kind), true
	}

	return fiber.StatusInternalServerError, string(pe.Kind), true
}
