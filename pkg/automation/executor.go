package automation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/registry"
)

const (
	defaultRetryAttempts = 3
	retryBaseDelay       = time.Second
)

// Executor runs an automation's action sequence and records one outcome
// per attempted action.
type Executor struct {
	registry *registry.Registry
	logger   *slog.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutor(reg *registry.Registry, logger *slog.Logger) *Executor {
	return &Executor{
		registry: reg,
		logger:   logger,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes the sequence in order. Failures are handled per action:
// continue records the failure and moves on, stop halts the sequence,
// retry re-runs the action with exponential backoff and degrades to
// continue semantics once the attempts are exhausted. Outputs of
// successful actions are exposed to later actions under the action's
// name.
func (e *Executor) Run(ctx context.Context, auto *models.Automation, triggeredBy string) *models.Execution {
	logger := e.logger.With("automation_id", auto.ID, "triggered_by", triggeredBy)

	execution := &models.Execution{
		ID:           uuid.New().String(),
		AutomationID: auto.ID,
		Status:       models.ExecutionRunning,
		TriggeredBy:  triggeredBy,
		StartedAt:    time.Now().UTC(),
		Outcomes:     make([]models.ActionOutcome, 0, len(auto.Actions)),
	}

	logger.InfoContext(ctx, "starting automation execution", "execution_id", execution.ID, "actions", len(auto.Actions))

	contained := false

	for i, step := range auto.Actions {
		outcome := e.runAction(ctx, i, step, execution)
		execution.Outcomes = append(execution.Outcomes, outcome)

		if outcome.Success {
			continue
		}

		switch step.OnError {
		case models.OnErrorContinue, models.OnErrorRetry:
			contained = true

			logger.WarnContext(ctx, "action failed, continuing",
				"action", step.Name, "attempts", outcome.Attempts, "error", outcome.Error)
		default:
			logger.WarnContext(ctx, "action failed, halting sequence", "action", step.Name, "error", outcome.Error)
			execution.Finish(models.ExecutionFailed)

			return execution
		}
	}

	if contained {
		execution.Finish(models.ExecutionCompletedWithErrors)
	} else {
		execution.Finish(models.ExecutionCompleted)
	}

	logger.InfoContext(ctx, "automation execution finished",
		"execution_id", execution.ID, "status", execution.Status)

	return execution
}

// vars collects the outputs of earlier successful actions keyed by name.
func executionVars(execution *models.Execution) map[string]any {
	vars := make(map[string]any, len(execution.Outcomes))

	for _, outcome := range execution.Outcomes {
		if outcome.Success && outcome.ActionName != "" {
			vars[outcome.ActionName] = outcome.Result
		}
	}

	return vars
}

func (e *Executor) runAction(ctx context.Context, index int, step models.Action, execution *models.Execution) models.ActionOutcome {
	outcome := models.ActionOutcome{
		ActionIndex: index,
		ActionName:  step.Name,
		Timestamp:   time.Now().UTC(),
	}

	attempts := 1
	if step.OnError == models.OnErrorRetry {
		attempts = step.Retries
		if attempts <= 0 {
			attempts = defaultRetryAttempts
		}
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := retryBaseDelay << (attempt - 2)

			e.logger.InfoContext(ctx, "retrying action",
				"action", step.Name, "attempt", attempt, "of", attempts, "delay", delay.String())

			if err := e.sleep(ctx, delay); err != nil {
				lastErr = err

				break
			}
		}

		outcome.Attempts = attempt

		result, err := e.executeOnce(ctx, step, execution)
		if err == nil {
			outcome.Success = true
			outcome.Result = result

			return outcome
		}

		lastErr = err
	}

	outcome.Error = lastErr.Error()

	return outcome
}

func (e *Executor) executeOnce(ctx context.Context, step models.Action, execution *models.Execution) (any, error) {
	action, err := e.registry.CreateAction(step.Type, step.Config)
	if err != nil {
		return nil, err
	}

	if err := action.Validate(ctx); err != nil {
		return nil, err
	}

	return action.Execute(ctx, executionVars(execution), e.logger)
}
