package delay

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWaits(t *testing.T) {
	action, err := NewAction(map[string]any{"duration": 20.0})
	require.NoError(t, err)

	start := time.Now()

	result, err := action.Execute(context.Background(), nil, slog.Default())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	out := result.(map[string]any)
	assert.Equal(t, int64(20), out["delayed_ms"])
}

func TestExecuteHonorsCancel(t *testing.T) {
	action, err := NewAction(map[string]any{"duration": 60000.0})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()

	_, err = action.Execute(ctx, nil, slog.Default())
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRejectsBadDuration(t *testing.T) {
	_, err := NewAction(map[string]any{})
	require.ErrorIs(t, err, ErrDurationInvalid)

	_, err = NewAction(map[string]any{"duration": -5.0})
	require.ErrorIs(t, err, ErrDurationInvalid)

	_, err = NewAction(map[string]any{"duration": 600000.0})
	require.Error(t, err)
}
