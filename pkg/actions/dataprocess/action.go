// Package dataprocess provides the data_processing automation action,
// which reshapes the output of an earlier action in the sequence.
package dataprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrOperationInvalid is returned for an unsupported operation.
	ErrOperationInvalid = errors.New("invalid data_processing operation")

	// ErrSourceRequired is returned when no source action is configured.
	ErrSourceRequired = errors.New("data_processing requires a source action name")

	// ErrSourceMissing is returned when the source output is absent at runtime.
	ErrSourceMissing = errors.New("source action produced no output")
)

// Action applies one operation to the output of a named earlier action.
type Action struct {
	Operation string
	Source    string
	Field     string
	Equals    any
}

// NewAction builds an Action from raw configuration.
func NewAction(config map[string]any) (*Action, error) {
	operation, _ := config["operation"].(string)
	switch operation {
	case "count", "sum", "filter", "pick":
	default:
		return nil, fmt.Errorf("%w: %q", ErrOperationInvalid, operation)
	}

	source, _ := config["source"].(string)
	if source == "" {
		return nil, ErrSourceRequired
	}

	field, _ := config["field"].(string)

	return &Action{
		Operation: operation,
		Source:    source,
		Field:     field,
		Equals:    config["equals"],
	}, nil
}

// Validate checks the action configuration.
func (a *Action) Validate(_ context.Context) error {
	switch a.Operation {
	case "sum", "filter", "pick":
		if a.Field == "" {
			return fmt.Errorf("%w: %q requires a field", ErrOperationInvalid, a.Operation)
		}
	}

	return nil
}

// Execute applies the operation to the source action's output.
func (a *Action) Execute(ctx context.Context, vars map[string]any, logger *slog.Logger) (any, error) {
	logger = logger.With("action", "data_processing", "operation", a.Operation, "source", a.Source)
	logger.InfoContext(ctx, "executing data_processing action")

	input, ok := vars[a.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceMissing, a.Source)
	}

	switch a.Operation {
	case "count":
		return map[string]any{"count": count(input)}, nil
	case "sum":
		total, err := sum(input, a.Field)
		if err != nil {
			return nil, err
		}

		return map[string]any{"sum": total, "field": a.Field}, nil
	case "filter":
		return map[string]any{"items": filter(input, a.Field, a.Equals)}, nil
	case "pick":
		return map[string]any{"value": pick(input, a.Field)}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrOperationInvalid, a.Operation)
}

func items(input any) []any {
	switch v := input.(type) {
	case []any:
		return v
	case map[string]any:
		if list, ok := v["items"].([]any); ok {
			return list
		}

		if list, ok := v["body"].([]any); ok {
			return list
		}
	}

	return nil
}

func count(input any) int {
	if list := items(input); list != nil {
		return len(list)
	}

	if m, ok := input.(map[string]any); ok {
		return len(m)
	}

	return 0
}

func sum(input any, field string) (float64, error) {
	var total float64

	for _, item := range items(input) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if n, ok := m[field].(float64); ok {
			total += n
		}
	}

	return total, nil
}

func filter(input any, field string, equals any) []any {
	matched := make([]any, 0)

	for _, item := range items(input) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if m[field] == equals {
			matched = append(matched, item)
		}
	}

	return matched
}

func pick(input any, field string) any {
	if m, ok := input.(map[string]any); ok {
		return m[field]
	}

	return nil
}
