// Package services holds the conversational features built directly on
// the completion provider: the chat assistant and code review.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/persistence"
	"github.com/lumoworks/lumo/pkg/providers"
)

// historyWindow bounds how many prior messages accompany each
// completion call.
const historyWindow = 20

const chatSystemPrompt = "You are Lumo, a helpful assistant for a content-generation service. " +
	"You help users generate images, videos, scripts and code, and answer questions concisely."

// Completer generates text from chat-style prompts.
type Completer interface {
	Complete(ctx context.Context, req providers.CompletionRequest) (string, error)
}

// Chat manages conversations and produces assistant replies.
type Chat struct {
	completion Completer
	store      persistence.Store
	logger     *slog.Logger
}

func NewChat(completion Completer, store persistence.Store, logger *slog.Logger) *Chat {
	return &Chat{
		completion: completion,
		store:      store,
		logger:     logger,
	}
}

// Send appends the user message to the conversation (creating it when
// conversationID is empty), obtains the assistant reply and persists
// both turns.
func (c *Chat) Send(ctx context.Context, conversationID, message string) (*models.Conversation, string, error) {
	now := time.Now().UTC()

	var conversation *models.Conversation

	if conversationID == "" {
		conversation = &models.Conversation{
			ID:        uuid.New().String(),
			CreatedAt: now,
		}
	} else {
		var err error

		conversation, err = c.store.ConversationByID(ctx, conversationID)
		if err != nil {
			return nil, "", err
		}
	}

	conversation.Messages = append(conversation.Messages, models.ChatMessage{
		Role:      "user",
		Content:   message,
		Timestamp: now,
	})

	reply, err := c.completion.Complete(ctx, providers.CompletionRequest{
		Messages:    c.promptMessages(conversation),
		Temperature: 0.7,
	})
	if err != nil {
		return nil, "", err
	}

	conversation.Messages = append(conversation.Messages, models.ChatMessage{
		Role:      "assistant",
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})
	conversation.UpdatedAt = time.Now().UTC()

	if err := c.store.SaveConversation(ctx, conversation); err != nil {
		return nil, "", err
	}

	c.logger.InfoContext(ctx, "chat turn completed",
		"conversation_id", conversation.ID, "messages", len(conversation.Messages))

	return conversation, reply, nil
}

// promptMessages renders the system prompt plus the most recent window
// of the conversation.
func (c *Chat) promptMessages(conversation *models.Conversation) []providers.Message {
	history := conversation.Messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]providers.Message, 0, len(history)+1)
	messages = append(messages, providers.Message{Role: "system", Content: chatSystemPrompt})

	for _, msg := range history {
		messages = append(messages, providers.Message{Role: msg.Role, Content: msg.Content})
	}

	return messages
}

// Conversation fetches one conversation.
func (c *Chat) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	return c.store.ConversationByID(ctx, id)
}

// Conversations lists all stored conversations.
func (c *Chat) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	return c.store.Conversations(ctx)
}

// DeleteConversation drops a conversation.
func (c *Chat) DeleteConversation(ctx context.Context, id string) error {
	return c.store.DeleteConversation(ctx, id)
}

// ReviewCode asks the completion provider for a structured review of a
// code snippet. reviewType narrows the focus (general, security,
// performance, style).
func ReviewCode(ctx context.Context, completion Completer, code, language, reviewType string) (string, error) {
	if reviewType == "" {
		reviewType = "general"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Review the following %s code. Focus: %s review.\n", language, reviewType)
	b.WriteString("Report issues with line references, then suggested improvements, then an overall assessment.\n\n")
	fmt.Fprintf(&b, "```%s\n%s\n```", language, code)

	return completion.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: "system", Content: "You are a meticulous senior code reviewer."},
			{Role: "user", Content: b.String()},
		},
		Temperature: 0.2,
	})
}
