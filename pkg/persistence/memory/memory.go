// Package memory provides the default in-process registry store.
package memory

import (
	"context"
	"sync"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/persistence"
)

// Store keeps automations, execution history and conversations in maps
// guarded by a single lock. State does not survive process restart.
type Store struct {
	mu            sync.RWMutex
	automations   map[string]*models.Automation
	history       map[string][]*models.Execution
	conversations map[string]*models.Conversation
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		automations:   make(map[string]*models.Automation),
		history:       make(map[string][]*models.Execution),
		conversations: make(map[string]*models.Conversation),
	}
}

func (s *Store) SaveAutomation(_ context.Context, automation *models.Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *automation
	s.automations[automation.ID] = &copied

	return nil
}

func (s *Store) AutomationByID(_ context.Context, id string) (*models.Automation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	automation, ok := s.automations[id]
	if !ok {
		return nil, persistence.NewStoreError("AutomationByID", id, persistence.ErrAutomationNotFound)
	}

	copied := *automation

	return &copied, nil
}

func (s *Store) Automations(_ context.Context) ([]*models.Automation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Automation, 0, len(s.automations))
	for _, automation := range s.automations {
		copied := *automation
		out = append(out, &copied)
	}

	return out, nil
}

func (s *Store) DeleteAutomation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.automations[id]; !ok {
		return persistence.NewStoreError("DeleteAutomation", id, persistence.ErrAutomationNotFound)
	}

	delete(s.automations, id)
	delete(s.history, id)

	return nil
}

func (s *Store) AppendExecution(_ context.Context, execution *models.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *execution
	entries := append(s.history[execution.AutomationID], &copied)

	// Bounded ring: evict oldest past the cap.
	if len(entries) > models.ExecutionHistoryCap {
		entries = entries[len(entries)-models.ExecutionHistoryCap:]
	}

	s.history[execution.AutomationID] = entries

	return nil
}

func (s *Store) Executions(_ context.Context, automationID string) ([]*models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[automationID]
	out := make([]*models.Execution, 0, len(entries))

	for _, execution := range entries {
		copied := *execution
		out = append(out, &copied)
	}

	return out, nil
}

func (s *Store) SaveConversation(_ context.Context, conversation *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *conversation
	copied.Messages = append([]models.ChatMessage(nil), conversation.Messages...)
	s.conversations[conversation.ID] = &copied

	return nil
}

func (s *Store) ConversationByID(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[id]
	if !ok {
		return nil, persistence.NewStoreError("ConversationByID", id, persistence.ErrConversationNotFound)
	}

	copied := *conversation
	copied.Messages = append([]models.ChatMessage(nil), conversation.Messages...)

	return &copied, nil
}

func (s *Store) Conversations(_ context.Context) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Conversation, 0, len(s.conversations))
	for _, conversation := range s.conversations {
		copied := *conversation
		copied.Messages = append([]models.ChatMessage(nil), conversation.Messages...)
		out = append(out, &copied)
	}

	return out, nil
}

func (s *Store) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return persistence.NewStoreError("DeleteConversation", id, persistence.ErrConversationNotFound)
	}

	delete(s.conversations, id)

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}
