package apicall

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithParamsAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "42", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{
		"url":     server.URL + "/users",
		"method":  "post",
		"headers": map[string]any{"Authorization": "Bearer token"},
		"params":  map[string]any{"limit": "42"},
		"body":    `{"name":"Ada"}`,
	})
	require.NoError(t, err)
	require.NoError(t, action.Validate(context.Background()))

	result, err := action.Execute(context.Background(), nil, slog.Default())
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, out["status_code"])
	assert.Equal(t, map[string]any{"id": "u1"}, out["body"])
}

func TestExecuteNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), nil, slog.Default())
	require.NoError(t, err)

	out := result.(map[string]any)
	assert.Equal(t, "plain text", out["body"])
}

func TestNewActionRequiresURL(t *testing.T) {
	_, err := NewAction(map[string]any{"method": "GET"})
	require.ErrorIs(t, err, ErrURLRequired)
}

func TestNewActionDefaults(t *testing.T) {
	action, err := NewAction(map[string]any{"url": "http://example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, action.Method)
	assert.Equal(t, "30s", action.Timeout.String())
}
