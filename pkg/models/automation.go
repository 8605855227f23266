package models

import "time"

// TriggerKind identifies how an automation is invoked.
type TriggerKind string

const (
	TriggerManual    TriggerKind = "manual"
	TriggerScheduled TriggerKind = "scheduled"
	TriggerWebhook   TriggerKind = "webhook"
)

// Valid reports whether the trigger kind belongs to the known set.
func (k TriggerKind) Valid() bool {
	switch k {
	case TriggerManual, TriggerScheduled, TriggerWebhook:
		return true
	}

	return false
}

// OnErrorPolicy governs what happens when an action in a sequence fails.
type OnErrorPolicy string

const (
	OnErrorContinue OnErrorPolicy = "continue"
	OnErrorStop     OnErrorPolicy = "stop"
	OnErrorRetry    OnErrorPolicy = "retry"
)

// Action is one step of an automation's ordered action list.
type Action struct {
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Config  map[string]any `json:"config,omitempty"`
	OnError OnErrorPolicy  `json:"on_error,omitempty"`
	Retries int            `json:"retries,omitempty"`
}

// Trigger binds an automation to its invocation source. Schedule is a
// cron expression for scheduled triggers; WebhookURL is set for webhook
// triggers.
type Trigger struct {
	Kind       TriggerKind `json:"kind"`
	Schedule   string      `json:"schedule,omitempty"`
	WebhookURL string      `json:"webhook_url,omitempty"`
}

// AutomationStatus is the administrative state of an automation.
type AutomationStatus string

const (
	AutomationActive   AutomationStatus = "active"
	AutomationDisabled AutomationStatus = "disabled"
)

// Automation is a persistent, named, trigger-bound action sequence.
type Automation struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Trigger     Trigger          `json:"trigger"`
	Actions     []Action         `json:"actions"`
	Enabled     bool             `json:"enabled"`
	Status      AutomationStatus `json:"status"`
	RunCount    int              `json:"run_count"`
	LastRun     *time.Time       `json:"last_run,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
