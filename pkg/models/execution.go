package models

import "time"

// ExecutionHistoryCap bounds the retained run history per automation.
// Insertion past the cap evicts the oldest execution.
const ExecutionHistoryCap = 100

// ExecutionStatus is the lifecycle state of one automation run.
type ExecutionStatus string

const (
	ExecutionRunning             ExecutionStatus = "running"
	ExecutionCompleted           ExecutionStatus = "completed"
	ExecutionCompletedWithErrors ExecutionStatus = "completed_with_errors"
	ExecutionFailed              ExecutionStatus = "failed"
)

// ActionOutcome records the result of one action within an execution.
type ActionOutcome struct {
	ActionIndex int       `json:"action_index"`
	ActionName  string    `json:"action_name"`
	Success     bool      `json:"success"`
	Attempts    int       `json:"attempts"`
	Result      any       `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Execution is one concrete run record of an automation's action
// sequence. Outcomes are append-only once the run has started.
type Execution struct {
	ID           string          `json:"id"`
	AutomationID string          `json:"automation_id"`
	Status       ExecutionStatus `json:"status"`
	TriggeredBy  string          `json:"triggered_by"`
	Outcomes     []ActionOutcome `json:"outcomes"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
}

// Finish stamps the end time, duration and terminal status.
func (e *Execution) Finish(status ExecutionStatus) {
	now := time.Now().UTC()
	e.FinishedAt = &now
	e.DurationMs = now.Sub(e.StartedAt).Milliseconds()
	e.Status = status
}
