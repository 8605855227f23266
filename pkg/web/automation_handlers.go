package web

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lumoworks/lumo/pkg/models"
)

func (h *APIHandlers) CreateAutomation(c fiber.Ctx) error {
	var req CreateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	auto := &models.Automation{
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger.toModel(),
		Actions:     toModelActions(req.Actions),
		Status:      statusFromEnabled(req.Enabled),
	}

	created, err := h.engine.Create(c.Context(), auto)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) ListAutomations(c fiber.Ctx) error {
	automations, err := h.registry.Automations(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"automations": automations,
		"total":       len(automations),
	})
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	auto, err := h.registry.AutomationByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(auto)
}

func (h *APIHandlers) UpdateAutomation(c fiber.Ctx) error {
	var req UpdateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	auto := &models.Automation{
		ID:          c.Params("id"),
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger.toModel(),
		Actions:     toModelActions(req.Actions),
		Status:      statusFromEnabled(req.Enabled),
	}

	updated, err := h.engine.Update(c.Context(), auto)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteAutomation(c fiber.Ctx) error {
	if err := h.engine.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteAutomation runs the automation immediately.
func (h *APIHandlers) ExecuteAutomation(c fiber.Ctx) error {
	execution, err := h.engine.Execute(c.Context(), c.Params("id"), "manual")
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executionId": execution.ID,
		"status":      execution.Status,
		"execution":   execution,
	})
}

// TriggerWebhook fires a webhook-bound automation.
func (h *APIHandlers) TriggerWebhook(c fiber.Ctx) error {
	id := c.Params("id")

	auto, err := h.registry.AutomationByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if auto.Trigger.Kind != models.TriggerWebhook {
		return badRequest(c, "automation is not webhook triggered")
	}

	execution, err := h.engine.Execute(c.Context(), id, "webhook")
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executionId": execution.ID,
		"status":      execution.Status,
	})
}

// AutomationHistory pages through the retained run history, oldest
// first.
func (h *APIHandlers) AutomationHistory(c fiber.Ctx) error {
	history, err := h.engine.History(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	page, limit := pageParams(c)
	total := len(history)

	start := (page - 1) * limit
	if start > total {
		start = total
	}

	end := start + limit
	if end > total {
		end = total
	}

	return c.JSON(fiber.Map{
		"executions": history[start:end],
		"pagination": newPagination(page, limit, total),
	})
}

// ListActionTypes exposes the registered action catalog so clients can
// build valid sequences.
func (h *APIHandlers) ListActionTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"actions": h.actions.AvailableActions()})
}

func statusFromEnabled(enabled *bool) models.AutomationStatus {
	if enabled != nil && !*enabled {
		return models.AutomationDisabled
	}

	return models.AutomationActive
}
