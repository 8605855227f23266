// Package redis provides a Redis-backed registry store for deployments
// where automations and run history must outlive the process.
package redis

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/persistence"
)

const (
	automationsKey    = "lumo:automations"
	conversationsKey  = "lumo:conversations"
	historyKeyPrefix  = "lumo:history:"
	historyListOldest = int64(models.ExecutionHistoryCap)
)

// Store implements persistence.Store on a Redis connection.
// Automations and conversations live in hashes keyed by id; each
// automation's history is a list trimmed to the retention cap.
type Store struct {
	client *goredis.Client
}

// NewStore connects to the given Redis URL (redis://...).
func NewStore(url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &Store{client: goredis.NewClient(opts)}, nil
}

func historyKey(automationID string) string {
	return historyKeyPrefix + automationID
}

func (s *Store) SaveAutomation(ctx context.Context, automation *models.Automation) error {
	payload, err := json.Marshal(automation)
	if err != nil {
		return persistence.NewStoreError("SaveAutomation", automation.ID, err)
	}

	if err := s.client.HSet(ctx, automationsKey, automation.ID, payload).Err(); err != nil {
		return persistence.NewStoreError("SaveAutomation", automation.ID, err)
	}

	return nil
}

func (s *Store) AutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	payload, err := s.client.HGet(ctx, automationsKey, id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewStoreError("AutomationByID", id, persistence.ErrAutomationNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("AutomationByID", id, err)
	}

	var automation models.Automation
	if err := json.Unmarshal(payload, &automation); err != nil {
		return nil, persistence.NewStoreError("AutomationByID", id, err)
	}

	return &automation, nil
}

func (s *Store) Automations(ctx context.Context) ([]*models.Automation, error) {
	entries, err := s.client.HGetAll(ctx, automationsKey).Result()
	if err != nil {
		return nil, persistence.NewStoreError("Automations", "", err)
	}

	out := make([]*models.Automation, 0, len(entries))

	for id, payload := range entries {
		var automation models.Automation
		if err := json.Unmarshal([]byte(payload), &automation); err != nil {
			return nil, persistence.NewStoreError("Automations", id, err)
		}

		out = append(out, &automation)
	}

	return out, nil
}

func (s *Store) DeleteAutomation(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, automationsKey, id).Result()
	if err != nil {
		return persistence.NewStoreError("DeleteAutomation", id, err)
	}

	if removed == 0 {
		return persistence.NewStoreError("DeleteAutomation", id, persistence.ErrAutomationNotFound)
	}

	if err := s.client.Del(ctx, historyKey(id)).Err(); err != nil {
		return persistence.NewStoreError("DeleteAutomation", id, err)
	}

	return nil
}

func (s *Store) AppendExecution(ctx context.Context, execution *models.Execution) error {
	payload, err := json.Marshal(execution)
	if err != nil {
		return persistence.NewStoreError("AppendExecution", execution.ID, err)
	}

	key := historyKey(execution.AutomationID)

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	// Keep the newest entries, evicting from the head (oldest first).
	pipe.LTrim(ctx, key, -historyListOldest, -1)

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewStoreError("AppendExecution", execution.ID, err)
	}

	return nil
}

func (s *Store) Executions(ctx context.Context, automationID string) ([]*models.Execution, error) {
	entries, err := s.client.LRange(ctx, historyKey(automationID), 0, -1).Result()
	if err != nil {
		return nil, persistence.NewStoreError("Executions", automationID, err)
	}

	out := make([]*models.Execution, 0, len(entries))

	for _, payload := range entries {
		var execution models.Execution
		if err := json.Unmarshal([]byte(payload), &execution); err != nil {
			return nil, persistence.NewStoreError("Executions", automationID, err)
		}

		out = append(out, &execution)
	}

	return out, nil
}

func (s *Store) SaveConversation(ctx context.Context, conversation *models.Conversation) error {
	payload, err := json.Marshal(conversation)
	if err != nil {
		return persistence.NewStoreError("SaveConversation", conversation.ID, err)
	}

	if err := s.client.HSet(ctx, conversationsKey, conversation.ID, payload).Err(); err != nil {
		return persistence.NewStoreError("SaveConversation", conversation.ID, err)
	}

	return nil
}

func (s *Store) ConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	payload, err := s.client.HGet(ctx, conversationsKey, id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewStoreError("ConversationByID", id, persistence.ErrConversationNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("ConversationByID", id, err)
	}

	var conversation models.Conversation
	if err := json.Unmarshal(payload, &conversation); err != nil {
		return nil, persistence.NewStoreError("ConversationByID", id, err)
	}

	return &conversation, nil
}

func (s *Store) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	entries, err := s.client.HGetAll(ctx, conversationsKey).Result()
	if err != nil {
		return nil, persistence.NewStoreError("Conversations", "", err)
	}

	out := make([]*models.Conversation, 0, len(entries))

	for id, payload := range entries {
		var conversation models.Conversation
		if err := json.Unmarshal([]byte(payload), &conversation); err != nil {
			return nil, persistence.NewStoreError("Conversations", id, err)
		}

		out = append(out, &conversation)
	}

	return out, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, conversationsKey, id).Result()
	if err != nil {
		return persistence.NewStoreError("DeleteConversation", id, err)
	}

	if removed == 0 {
		return persistence.NewStoreError("DeleteConversation", id, persistence.ErrConversationNotFound)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}
