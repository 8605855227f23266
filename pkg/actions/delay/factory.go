package delay

import (
	"github.com/lumoworks/lumo/pkg/registry"
)

// ActionFactory creates delay actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (f *ActionFactory) Create(config map[string]any) (registry.Action, error) {
	return NewAction(config)
}

func (f *ActionFactory) ID() string {
	return "delay"
}

func (f *ActionFactory) Name() string {
	return "Delay"
}

func (f *ActionFactory) Description() string {
	return "Pauses the sequence for a fixed number of milliseconds."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "integer",
				"description": "Pause length in milliseconds.",
				"minimum":     1,
				"maximum":     300000,
			},
		},
		"required":             []string{"duration"},
		"additionalProperties": false,
	}
}
