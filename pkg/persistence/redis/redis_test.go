package redis

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a running Redis; set REDIS_TEST_URL to enable.
func testStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set, skipping redis store tests")
	}

	store, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})

	return store
}

func TestParseURLInvalid(t *testing.T) {
	_, err := NewStore("not-a-redis-url")
	assert.Error(t, err)
}

func TestHistoryTrimmedAtCap(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	automationID := "redis-test-auto"
	t.Cleanup(func() {
		_ = store.client.Del(ctx, historyKey(automationID)).Err()
	})

	for i := range models.ExecutionHistoryCap + 5 {
		require.NoError(t, store.AppendExecution(ctx, &models.Execution{
			ID:           fmt.Sprintf("exec-%d", i),
			AutomationID: automationID,
			Status:       models.ExecutionCompleted,
		}))
	}

	history, err := store.Executions(ctx, automationID)
	require.NoError(t, err)
	require.Len(t, history, models.ExecutionHistoryCap)
	assert.Equal(t, "exec-5", history[0].ID)
}
