package web

import (
	"bufio"
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/progress"
)

// StreamTaskEvents pushes a task's progress events over SSE until a
// terminal event arrives or the client disconnects. Only events
// published after the subscription are delivered; a task that already
// finished gets a single synthesized terminal frame.
func (h *APIHandlers) StreamTaskEvents(c fiber.Ctx) error {
	taskID := c.Params("id")

	if _, ok := h.pipeline.Task(taskID); !ok {
		return notFound(c, "task not found")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	// The stream writer outlives the handler, so the request context
	// cannot own the subscription.
	ctx, cancel := context.WithCancel(context.Background())

	events, err := h.progress.Subscribe(ctx, taskID)
	if err != nil {
		cancel()

		return internalError(c, err)
	}

	// There is no replay, so a task that went terminal before the
	// subscription would never produce another event. Re-check after
	// subscribing and synthesize the terminal frame instead of waiting.
	if snap, ok := h.pipeline.Task(taskID); ok && snap.Status.Terminal() {
		cancel()

		frame := terminalEvent(snap)

		return c.SendStreamWriter(func(w *bufio.Writer) {
			writeEvent(w, frame)
		})
	}

	logger := h.logger.With("task_id", taskID)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for event := range events {
			if !writeEvent(w, event) {
				logger.Debug("Progress stream client disconnected")

				return
			}

			eventType := event.GetType()
			if eventType == progress.CompleteEventType || eventType == progress.FailedEventType {
				return
			}
		}
	})
}

// terminalEvent builds the event a finished task would have published.
func terminalEvent(task *models.Task) progress.Event {
	base := progress.BaseEvent{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		Timestamp: time.Now().UTC(),
	}

	if task.Status == models.TaskFailed {
		return progress.Failed{BaseEvent: base, Message: "Task failed"}
	}

	return progress.Complete{BaseEvent: base, Message: "Task finished"}
}

// writeEvent emits one SSE frame and reports whether the client is
// still connected.
func writeEvent(w *bufio.Writer, event progress.Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		return true
	}

	if _, err := w.WriteString("event: " + string(event.GetType()) + "\n"); err != nil {
		return false
	}

	if _, err := w.WriteString("data: " + string(payload) + "\n\n"); err != nil {
		return false
	}

	return w.Flush() == nil
}
