package email

import (
	"github.com/lumoworks/lumo/pkg/registry"
)

// ActionFactory creates email actions.
type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (f *ActionFactory) Create(config map[string]any) (registry.Action, error) {
	return NewAction(config)
}

func (f *ActionFactory) ID() string {
	return "email"
}

func (f *ActionFactory) Name() string {
	return "Send Email"
}

func (f *ActionFactory) Description() string {
	return "Sends an email through the configured SMTP relay."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"description": "Recipient address or list of addresses.",
				"oneOf": []map[string]any{
					{"type": "string"},
					{"type": "array", "items": map[string]any{"type": "string"}},
				},
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Message subject line.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Message body.",
			},
			"from": map[string]any{
				"type":        "string",
				"description": "Sender address.",
			},
			"smtp_addr": map[string]any{
				"type":        "string",
				"description": "SMTP relay host:port. Leave empty for dry-run delivery.",
			},
		},
		"required":             []string{"to"},
		"additionalProperties": false,
	}
}
