// Package fileop provides the file_operation automation action with
// read, write, copy and delete operations confined to a base directory.
package fileop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathRequired is returned when the configuration has no path.
	ErrPathRequired = errors.New("file_operation requires a path")

	// ErrOperationInvalid is returned for an unsupported operation.
	ErrOperationInvalid = errors.New("invalid file operation")

	// ErrPathEscapes is returned when a path resolves outside the base directory.
	ErrPathEscapes = errors.New("path escapes the base directory")
)

// Action performs one filesystem operation under a base directory.
type Action struct {
	Operation   string
	Path        string
	Destination string
	Content     string

	root string
}

// NewAction builds an Action from raw configuration. All paths resolve
// relative to root.
func NewAction(root string, config map[string]any) (*Action, error) {
	operation, _ := config["operation"].(string)
	switch operation {
	case "read", "write", "copy", "delete":
	default:
		return nil, fmt.Errorf("%w: %q", ErrOperationInvalid, operation)
	}

	path, _ := config["path"].(string)
	if path == "" {
		return nil, ErrPathRequired
	}

	destination, _ := config["destination"].(string)
	if operation == "copy" && destination == "" {
		return nil, fmt.Errorf("%w: copy requires a destination", ErrPathRequired)
	}

	content, _ := config["content"].(string)

	return &Action{
		Operation:   operation,
		Path:        path,
		Destination: destination,
		Content:     content,
		root:        root,
	}, nil
}

// Validate checks that all configured paths stay inside the base directory.
func (a *Action) Validate(_ context.Context) error {
	if _, err := a.resolve(a.Path); err != nil {
		return err
	}

	if a.Destination != "" {
		if _, err := a.resolve(a.Destination); err != nil {
			return err
		}
	}

	return nil
}

func (a *Action) resolve(path string) (string, error) {
	full := filepath.Join(a.root, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, filepath.Clean(a.root)+string(os.PathSeparator)) && full != filepath.Clean(a.root) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapes, path)
	}

	return full, nil
}

// Execute runs the configured operation.
func (a *Action) Execute(ctx context.Context, _ map[string]any, logger *slog.Logger) (any, error) {
	logger = logger.With("action", "file_operation", "operation", a.Operation, "path", a.Path)
	logger.InfoContext(ctx, "executing file_operation action")

	path, err := a.resolve(a.Path)
	if err != nil {
		return nil, err
	}

	switch a.Operation {
	case "read":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read failed: %w", err)
		}

		return map[string]any{"path": a.Path, "content": string(data), "size": len(data)}, nil

	case "write":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("write failed: %w", err)
		}

		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return nil, fmt.Errorf("write failed: %w", err)
		}

		return map[string]any{"path": a.Path, "written": len(a.Content)}, nil

	case "copy":
		dest, err := a.resolve(a.Destination)
		if err != nil {
			return nil, err
		}

		copied, err := copyFile(path, dest)
		if err != nil {
			return nil, fmt.Errorf("copy failed: %w", err)
		}

		return map[string]any{"path": a.Path, "destination": a.Destination, "copied": copied}, nil

	case "delete":
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("delete failed: %w", err)
		}

		return map[string]any{"path": a.Path, "deleted": true}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrOperationInvalid, a.Operation)
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	return io.Copy(out, in)
}
