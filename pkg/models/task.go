// Package models defines the domain entities shared across the service.
package models

import (
	"time"
)

// TaskKind identifies one of the closed set of pipeline shapes.
type TaskKind string

const (
	TaskImageSingle   TaskKind = "image-single"
	TaskImageBatch    TaskKind = "image-batch"
	TaskVideoAuto     TaskKind = "video-auto"
	TaskScriptOnly    TaskKind = "script-only"
	TaskCodeGenerate  TaskKind = "code-generate"
	TaskAutomationRun TaskKind = "automation-run"
)

// Valid reports whether the kind belongs to the known set.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskImageSingle, TaskImageBatch, TaskVideoAuto, TaskScriptOnly, TaskCodeGenerate, TaskAutomationRun:
		return true
	}

	return false
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending             TaskStatus = "pending"
	TaskRunning             TaskStatus = "running"
	TaskCompleted           TaskStatus = "completed"
	TaskCompletedWithErrors TaskStatus = "completed_with_errors"
	TaskFailed              TaskStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskCompletedWithErrors || s == TaskFailed
}

// StageResult is one entry of a task's append-only stage log.
type StageResult struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	Success   bool      `json:"success"`
	Payload   any       `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Task is one end-to-end unit of pipeline work.
type Task struct {
	ID           string        `json:"id"`
	Kind         TaskKind      `json:"kind"`
	Status       TaskStatus    `json:"status"`
	Progress     float64       `json:"progress"`
	CurrentStage int           `json:"current_stage"`
	StageResults []StageResult `json:"stage_results,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// NewTask returns a pending task for the given kind.
func NewTask(id string, kind TaskKind) *Task {
	return &Task{
		ID:        id,
		Kind:      kind,
		Status:    TaskPending,
		CreatedAt: time.Now().UTC(),
	}
}

// SetProgress advances cumulative progress. Progress never decreases and
// is clamped to [0, 100].
func (t *Task) SetProgress(percent float64) {
	if percent < t.Progress {
		return
	}

	if percent > 100 {
		percent = 100
	}

	t.Progress = percent
}

// AppendResult appends a stage result to the task's log.
func (t *Task) AppendResult(result StageResult) {
	t.StageResults = append(t.StageResults, result)
}

// Finish marks the task terminal with the given status.
func (t *Task) Finish(status TaskStatus) {
	now := time.Now().UTC()
	t.Status = status
	t.CompletedAt = &now
}
