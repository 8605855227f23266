package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lumoworks/lumo/pkg/models"
)

const maxBatchPrompts = 10

// ValidationError reports malformed task parameters. It is always
// raised before any stage runs and before any progress event is
// published.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is a parameter validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

var allowedSizes = map[string]bool{
	"256x256":   true,
	"512x512":   true,
	"1024x1024": true,
	"1792x1024": true,
	"1024x1792": true,
}

func validateParams(kind models.TaskKind, params Params) error {
	switch kind {
	case models.TaskImageSingle:
		if strings.TrimSpace(params.Prompt) == "" {
			return &ValidationError{Field: "prompt", Reason: "must not be empty"}
		}

		if params.Size != "" && !allowedSizes[params.Size] {
			return &ValidationError{Field: "size", Reason: fmt.Sprintf("unsupported size %q", params.Size)}
		}

	case models.TaskImageBatch:
		if len(params.Prompts) == 0 {
			return &ValidationError{Field: "prompts", Reason: "must contain at least one prompt"}
		}

		if len(params.Prompts) > maxBatchPrompts {
			return &ValidationError{Field: "prompts", Reason: fmt.Sprintf("at most %d prompts per batch", maxBatchPrompts)}
		}

		for i, prompt := range params.Prompts {
			if strings.TrimSpace(prompt) == "" {
				return &ValidationError{Field: "prompts", Reason: fmt.Sprintf("prompt %d is empty", i)}
			}
		}

		if params.Size != "" && !allowedSizes[params.Size] {
			return &ValidationError{Field: "size", Reason: fmt.Sprintf("unsupported size %q", params.Size)}
		}

	case models.TaskVideoAuto, models.TaskScriptOnly:
		if strings.TrimSpace(params.Topic) == "" {
			return &ValidationError{Field: "topic", Reason: "must not be empty"}
		}

		if params.Duration != 0 && (params.Duration < 5 || params.Duration > 300) {
			return &ValidationError{Field: "duration", Reason: "must be between 5 and 300 seconds"}
		}

	case models.TaskCodeGenerate:
		if strings.TrimSpace(params.Description) == "" {
			return &ValidationError{Field: "description", Reason: "must not be empty"}
		}

	case models.TaskAutomationRun:
		if strings.TrimSpace(params.AutomationID) == "" {
			return &ValidationError{Field: "automation_id", Reason: "must not be empty"}
		}
	}

	return nil
}
