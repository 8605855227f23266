// Package persistence abstracts the registry store that holds
// automations, their execution history and chat conversations.
//
// The default implementation is an in-process map store (registries are
// non-durable across restarts); a Redis-backed store is available for
// deployments that want the registry to outlive the process.
package persistence

import (
	"context"

	"github.com/lumoworks/lumo/pkg/models"
)

// Store is the registry storage contract. Implementations must be safe
// for concurrent use by multiple in-flight tasks.
type Store interface {
	SaveAutomation(ctx context.Context, automation *models.Automation) error
	AutomationByID(ctx context.Context, id string) (*models.Automation, error)
	Automations(ctx context.Context) ([]*models.Automation, error)
	// DeleteAutomation removes the automation and its execution history.
	DeleteAutomation(ctx context.Context, id string) error

	// AppendExecution appends a run record to the automation's history,
	// evicting the oldest entry once the history exceeds
	// models.ExecutionHistoryCap.
	AppendExecution(ctx context.Context, execution *models.Execution) error
	// Executions returns the retained history, oldest first.
	Executions(ctx context.Context, automationID string) ([]*models.Execution, error)

	SaveConversation(ctx context.Context, conversation *models.Conversation) error
	ConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	Conversations(ctx context.Context) ([]*models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
