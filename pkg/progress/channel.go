package progress

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const eventTypeMetadataKey = "event_type"

const topicPrefix = "lumo.tasks."

// Topic returns the per-task topic name.
func Topic(taskID string) string {
	return topicPrefix + taskID
}

// Channel is the publish/subscribe mechanism keyed by task id.
type Channel struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

// NewChannel wraps a watermill publisher/subscriber pair. For in-process
// delivery both ends are the same GoChannel instance.
func NewChannel(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *Channel {
	return &Channel{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "progress_channel"),
	}
}

// Publish delivers an event to every subscriber of the task's topic, in
// publish order.
func (c *Channel) Publish(_ context.Context, taskID string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(eventTypeMetadataKey, string(event.GetType()))

	return c.publisher.Publish(Topic(taskID), msg)
}

// Subscribe joins the task's topic and returns a stream of decoded
// events. Only events published after the join are delivered. The stream
// closes when ctx is cancelled or the channel shuts down.
func (c *Channel) Subscribe(ctx context.Context, taskID string) (<-chan Event, error) {
	messages, err := c.subscriber.Subscribe(ctx, Topic(taskID))
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 16)

	go func() {
		defer close(out)

		for msg := range messages {
			event, err := decode(msg)
			if err != nil {
				c.logger.Error("Dropping undecodable progress event", "task_id", taskID, "error", err)
				msg.Nack()

				continue
			}

			select {
			case out <- event:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()

				return
			}
		}
	}()

	return out, nil
}

func decode(msg *message.Message) (Event, error) {
	eventType := EventType(msg.Metadata.Get(eventTypeMetadataKey))

	switch eventType {
	case ProgressEventType:
		var event Progress
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return nil, err
		}

		return event, nil
	case CompleteEventType:
		var event Complete
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return nil, err
		}

		return event, nil
	case FailedEventType:
		var event Failed
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return nil, err
		}

		return event, nil
	}

	return nil, &UnknownEventTypeError{Type: string(eventType)}
}

// Emit publishes a fractional progress event.
func (c *Channel) Emit(ctx context.Context, taskID string, percent float64, msg string) {
	c.publish(ctx, taskID, Progress{
		BaseEvent: newBase(taskID),
		Percent:   percent,
		Message:   msg,
	})
}

// Done publishes the terminal complete event.
func (c *Channel) Done(ctx context.Context, taskID, msg string) {
	c.publish(ctx, taskID, Complete{
		BaseEvent: newBase(taskID),
		Message:   msg,
	})
}

// Fail publishes the terminal error event.
func (c *Channel) Fail(ctx context.Context, taskID, msg string) {
	c.publish(ctx, taskID, Failed{
		BaseEvent: newBase(taskID),
		Message:   msg,
	})
}

func (c *Channel) publish(ctx context.Context, taskID string, event Event) {
	if err := c.Publish(ctx, taskID, event); err != nil {
		c.logger.Error("Failed to publish progress event", "task_id", taskID, "type", event.GetType(), "error", err)
	}
}

func newBase(taskID string) BaseEvent {
	return BaseEvent{
		ID:        watermill.NewUUID(),
		TaskID:    taskID,
		Timestamp: time.Now().UTC(),
	}
}

// Close shuts down the underlying publisher and subscriber.
func (c *Channel) Close() error {
	if err := c.publisher.Close(); err != nil {
		return err
	}

	return c.subscriber.Close()
}

// UnknownEventTypeError is returned when a message carries an
// unrecognized event type tag.
type UnknownEventTypeError struct {
	Type string
}

func (e *UnknownEventTypeError) Error() string {
	return "unknown progress event type: " + e.Type
}
