// Package delay provides the delay automation action, a context-aware
// pause between sequence steps.
package delay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrDurationInvalid is returned for a missing or non-positive duration.
var ErrDurationInvalid = errors.New("delay requires a positive duration")

const maxDelay = 5 * time.Minute

// Action pauses the sequence for a configured duration.
type Action struct {
	Duration time.Duration
}

// NewAction builds an Action from raw configuration. duration is in
// milliseconds.
func NewAction(config map[string]any) (*Action, error) {
	ms, ok := config["duration"].(float64)
	if !ok || ms <= 0 {
		return nil, ErrDurationInvalid
	}

	duration := time.Duration(ms) * time.Millisecond
	if duration > maxDelay {
		return nil, fmt.Errorf("%w: %s exceeds the %s ceiling", ErrDurationInvalid, duration, maxDelay)
	}

	return &Action{Duration: duration}, nil
}

// Validate checks the action configuration.
func (a *Action) Validate(_ context.Context) error {
	if a.Duration <= 0 || a.Duration > maxDelay {
		return ErrDurationInvalid
	}

	return nil
}

// Execute waits out the duration, returning early when the context is
// cancelled.
func (a *Action) Execute(ctx context.Context, _ map[string]any, logger *slog.Logger) (any, error) {
	logger.InfoContext(ctx, "executing delay action", "action", "delay", "duration", a.Duration.String())

	timer := time.NewTimer(a.Duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return map[string]any{"delayed_ms": a.Duration.Milliseconds()}, nil
}
