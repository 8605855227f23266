// Package progress delivers per-task progress events to subscribers.
//
// Events are published to a per-task topic and fan out to every
// subscriber joined at publish time. The channel is ephemeral: there is
// no replay for late subscribers and nothing survives process exit.
package progress

import "time"

// EventType discriminates the progress event variants.
type EventType string

const (
	ProgressEventType EventType = "task-progress"
	CompleteEventType EventType = "task-complete"
	FailedEventType   EventType = "task-error"
)

// Event is the tagged-variant interface implemented by all task events.
type Event interface {
	GetType() EventType
}

// BaseEvent carries the fields common to every task event.
type BaseEvent struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress reports fractional completion of a running task.
type Progress struct {
	BaseEvent

	Percent float64 `json:"progress"`
	Message string  `json:"message"`
}

func (p Progress) GetType() EventType {
	return ProgressEventType
}

// Complete is the terminal event of a successful task.
type Complete struct {
	BaseEvent

	Message string `json:"message"`
}

func (c Complete) GetType() EventType {
	return CompleteEventType
}

// Failed is the terminal event of an unrecoverable task failure.
type Failed struct {
	BaseEvent

	Message string `json:"message"`
}

func (f Failed) GetType() EventType {
	return FailedEventType
}
