package email

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteDryRun(t *testing.T) {
	action, err := NewAction(map[string]any{
		"to":      "ops@example.com",
		"subject": "report ready",
		"body":    "the weekly report is attached",
	})
	require.NoError(t, err)
	require.NoError(t, action.Validate(context.Background()))

	result, err := action.Execute(context.Background(), nil, slog.Default())
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, out["sent"])
	assert.Equal(t, []string{"ops@example.com"}, out["to"])
}

func TestRecipientList(t *testing.T) {
	action, err := NewAction(map[string]any{
		"to": []any{"a@example.com", "b@example.com"},
	})
	require.NoError(t, err)
	assert.Len(t, action.To, 2)
}

func TestNewActionRequiresRecipient(t *testing.T) {
	_, err := NewAction(map[string]any{"subject": "hi"})
	require.ErrorIs(t, err, ErrRecipientRequired)
}

func TestValidateRejectsBadAddress(t *testing.T) {
	action, err := NewAction(map[string]any{"to": "not-an-address"})
	require.NoError(t, err)
	assert.Error(t, action.Validate(context.Background()))
}

func TestMessageFormat(t *testing.T) {
	action, err := NewAction(map[string]any{
		"to":      "ops@example.com",
		"subject": "hello",
		"body":    "world",
	})
	require.NoError(t, err)

	msg := string(action.message())
	assert.Contains(t, msg, "To: ops@example.com\r\n")
	assert.Contains(t, msg, "Subject: hello\r\n")
	assert.Contains(t, msg, "\r\nworld")
}
