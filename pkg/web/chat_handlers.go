package web

import (
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) SendChatMessage(c fiber.Ctx) error {
	var req ChatMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	conversation, reply, err := h.chat.Send(c.Context(), req.ConversationID, req.Message)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversationId": conversation.ID,
		"reply":          reply,
		"messages":       len(conversation.Messages),
	})
}

func (h *APIHandlers) ListConversations(c fiber.Ctx) error {
	conversations, err := h.chat.Conversations(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"total":         len(conversations),
	})
}

func (h *APIHandlers) GetConversation(c fiber.Ctx) error {
	conversation, err := h.chat.Conversation(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(conversation)
}

func (h *APIHandlers) DeleteConversation(c fiber.Ctx) error {
	if err := h.chat.DeleteConversation(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
