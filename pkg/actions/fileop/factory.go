package fileop

import (
	"github.com/lumoworks/lumo/pkg/registry"
)

// ActionFactory creates file_operation actions rooted at a base directory.
type ActionFactory struct {
	root string
}

func NewActionFactory(root string) *ActionFactory {
	return &ActionFactory{root: root}
}

func (f *ActionFactory) Create(config map[string]any) (registry.Action, error) {
	return NewAction(f.root, config)
}

func (f *ActionFactory) ID() string {
	return "file_operation"
}

func (f *ActionFactory) Name() string {
	return "File Operation"
}

func (f *ActionFactory) Description() string {
	return "Reads, writes, copies or deletes a file inside the automation workspace."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Filesystem operation to perform.",
				"enum":        []string{"read", "write", "copy", "delete"},
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Path relative to the automation workspace.",
			},
			"destination": map[string]any{
				"type":        "string",
				"description": "Destination path for copy operations.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Content to write for write operations.",
			},
		},
		"required":             []string{"operation", "path"},
		"additionalProperties": false,
	}
}
