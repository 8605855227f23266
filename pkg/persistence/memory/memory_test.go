package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutomationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	automation := &models.Automation{
		ID:      "auto-1",
		Name:    "Nightly report",
		Trigger: models.Trigger{Kind: models.TriggerScheduled, Schedule: "0 2 * * *"},
		Enabled: true,
		Status:  models.AutomationActive,
	}

	require.NoError(t, store.SaveAutomation(ctx, automation))

	got, err := store.AutomationByID(ctx, "auto-1")
	require.NoError(t, err)
	assert.Equal(t, "Nightly report", got.Name)

	// The store hands out copies, not aliases.
	got.Name = "mutated"
	again, err := store.AutomationByID(ctx, "auto-1")
	require.NoError(t, err)
	assert.Equal(t, "Nightly report", again.Name)
}

func TestAutomationNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.AutomationByID(ctx, "missing")
	assert.True(t, persistence.IsAutomationNotFound(err))

	err = store.DeleteAutomation(ctx, "missing")
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func TestDeleteAutomationDropsHistory(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.SaveAutomation(ctx, &models.Automation{ID: "auto-2"}))
	require.NoError(t, store.AppendExecution(ctx, &models.Execution{
		ID:           "exec-1",
		AutomationID: "auto-2",
		Status:       models.ExecutionCompleted,
	}))

	require.NoError(t, store.DeleteAutomation(ctx, "auto-2"))

	history, err := store.Executions(ctx, "auto-2")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExecutionHistoryEvictsOldestPastCap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	start := time.Now().UTC()

	for i := range models.ExecutionHistoryCap + 1 {
		require.NoError(t, store.AppendExecution(ctx, &models.Execution{
			ID:           fmt.Sprintf("exec-%d", i),
			AutomationID: "auto-3",
			StartedAt:    start.Add(time.Duration(i) * time.Second),
			Status:       models.ExecutionCompleted,
		}))
	}

	history, err := store.Executions(ctx, "auto-3")
	require.NoError(t, err)
	require.Len(t, history, models.ExecutionHistoryCap)

	// The very first run was evicted; order is oldest first.
	assert.Equal(t, "exec-1", history[0].ID)
	assert.Equal(t, fmt.Sprintf("exec-%d", models.ExecutionHistoryCap), history[len(history)-1].ID)

	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].StartedAt.After(history[i-1].StartedAt))
	}
}

func TestConversationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	conversation := &models.Conversation{
		ID: "conv-1",
		Messages: []models.ChatMessage{
			{Role: "user", Content: "hello"},
		},
	}

	require.NoError(t, store.SaveConversation(ctx, conversation))

	got, err := store.ConversationByID(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)

	got.Messages[0].Content = "mutated"
	again, err := store.ConversationByID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Messages[0].Content)

	require.NoError(t, store.DeleteConversation(ctx, "conv-1"))
	_, err = store.ConversationByID(ctx, "conv-1")
	assert.True(t, persistence.IsConversationNotFound(err))
}
