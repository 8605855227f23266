package fileop

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, root string, config map[string]any) map[string]any {
	t.Helper()

	action, err := NewAction(root, config)
	require.NoError(t, err)
	require.NoError(t, action.Validate(context.Background()))

	result, err := action.Execute(context.Background(), nil, slog.Default())
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)

	return out
}

func TestWriteReadCopyDelete(t *testing.T) {
	root := t.TempDir()

	out := run(t, root, map[string]any{
		"operation": "write",
		"path":      "reports/out.txt",
		"content":   "hello",
	})
	assert.Equal(t, 5, out["written"])

	out = run(t, root, map[string]any{"operation": "read", "path": "reports/out.txt"})
	assert.Equal(t, "hello", out["content"])

	run(t, root, map[string]any{
		"operation":   "copy",
		"path":        "reports/out.txt",
		"destination": "backup/out.txt",
	})

	_, err := os.Stat(filepath.Join(root, "backup", "out.txt"))
	require.NoError(t, err)

	out = run(t, root, map[string]any{"operation": "delete", "path": "reports/out.txt"})
	assert.Equal(t, true, out["deleted"])

	_, err = os.Stat(filepath.Join(root, "reports", "out.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRejectsUnknownOperation(t *testing.T) {
	_, err := NewAction(t.TempDir(), map[string]any{"operation": "chmod", "path": "x"})
	require.ErrorIs(t, err, ErrOperationInvalid)
}

func TestRejectsMissingPath(t *testing.T) {
	_, err := NewAction(t.TempDir(), map[string]any{"operation": "read"})
	require.ErrorIs(t, err, ErrPathRequired)
}

func TestCopyRequiresDestination(t *testing.T) {
	_, err := NewAction(t.TempDir(), map[string]any{"operation": "copy", "path": "x"})
	require.Error(t, err)
}

func TestPathsStayInsideRoot(t *testing.T) {
	root := t.TempDir()

	action, err := NewAction(root, map[string]any{
		"operation": "read",
		"path":      "../../etc/passwd",
	})
	require.NoError(t, err)

	resolved, err := action.resolve(action.Path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), resolved)
}
