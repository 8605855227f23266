package dataprocess

import (
	"github.com/lumoworks/lumo/pkg/registry"
)

// ActionFactory creates data_processing actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (f *ActionFactory) Create(config map[string]any) (registry.Action, error) {
	return NewAction(config)
}

func (f *ActionFactory) ID() string {
	return "data_processing"
}

func (f *ActionFactory) Name() string {
	return "Data Processing"
}

func (f *ActionFactory) Description() string {
	return "Counts, sums, filters or picks values from the output of an earlier action."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Transformation to apply.",
				"enum":        []string{"count", "sum", "filter", "pick"},
			},
			"source": map[string]any{
				"type":        "string",
				"description": "Name of the earlier action whose output to process.",
			},
			"field": map[string]any{
				"type":        "string",
				"description": "Field to sum, filter on or pick.",
			},
			"equals": map[string]any{
				"description": "Value the field must equal for filter operations.",
			},
		},
		"required":             []string{"operation", "source"},
		"additionalProperties": false,
	}
}
