package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumoworks/lumo/pkg/persistence"
	"github.com/lumoworks/lumo/pkg/persistence/memory"
	"github.com/lumoworks/lumo/pkg/providers"
)

type scriptedCompleter struct {
	reply string
	last  providers.CompletionRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, req providers.CompletionRequest) (string, error) {
	s.last = req

	return s.reply, nil
}

func TestSendCreatesConversation(t *testing.T) {
	completer := &scriptedCompleter{reply: "hello there"}
	chat := NewChat(completer, memory.NewStore(), slog.Default())

	conversation, reply, err := chat.Send(context.Background(), "", "hi")
	require.NoError(t, err)

	assert.Equal(t, "hello there", reply)
	assert.NotEmpty(t, conversation.ID)
	require.Len(t, conversation.Messages, 2)
	assert.Equal(t, "user", conversation.Messages[0].Role)
	assert.Equal(t, "assistant", conversation.Messages[1].Role)

	// system prompt leads the provider call
	require.NotEmpty(t, completer.last.Messages)
	assert.Equal(t, "system", completer.last.Messages[0].Role)
}

func TestSendAppendsToExisting(t *testing.T) {
	completer := &scriptedCompleter{reply: "again"}
	chat := NewChat(completer, memory.NewStore(), slog.Default())

	first, _, err := chat.Send(context.Background(), "", "one")
	require.NoError(t, err)

	second, _, err := chat.Send(context.Background(), first.ID, "two")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Messages, 4)
}

func TestSendUnknownConversation(t *testing.T) {
	chat := NewChat(&scriptedCompleter{}, memory.NewStore(), slog.Default())

	_, _, err := chat.Send(context.Background(), "missing", "hi")
	assert.True(t, persistence.IsConversationNotFound(err))
}

func TestHistoryWindow(t *testing.T) {
	completer := &scriptedCompleter{reply: "ok"}
	chat := NewChat(completer, memory.NewStore(), slog.Default())

	conversationID := ""

	for range 15 {
		conversation, _, err := chat.Send(context.Background(), conversationID, "ping")
		require.NoError(t, err)

		conversationID = conversation.ID
	}

	// system prompt + at most historyWindow turns
	assert.LessOrEqual(t, len(completer.last.Messages), historyWindow+1)
}

func TestReviewCode(t *testing.T) {
	completer := &scriptedCompleter{reply: "looks fine"}

	review, err := ReviewCode(context.Background(), completer, "print('hi')", "python", "")
	require.NoError(t, err)
	assert.Equal(t, "looks fine", review)

	prompt := completer.last.Messages[1].Content
	assert.Contains(t, prompt, "python")
	assert.Contains(t, prompt, "general review")
	assert.Contains(t, prompt, "print('hi')")
}
