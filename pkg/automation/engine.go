// Package automation manages the automation registry: persisting
// trigger-bound action sequences, running them on demand, on schedule
// or by webhook, and retaining a bounded run history.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/persistence"
	"github.com/lumoworks/lumo/pkg/registry"
)

var (
	// ErrAutomationDisabled is returned when a disabled automation is executed.
	ErrAutomationDisabled = errors.New("automation is disabled")

	// ErrTriggerInvalid is returned for a malformed trigger definition.
	ErrTriggerInvalid = errors.New("invalid trigger")
)

const tracerName = "lumo.automation"

// Engine owns the automation lifecycle. Each scheduled automation holds
// at most one live cron registration; create, update and delete all go
// through the engine so registrations never leak.
type Engine struct {
	store    persistence.Store
	registry *registry.Registry
	executor *Executor
	logger   *slog.Logger

	cron    *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.Mutex

	// runLocks serializes runs per automation so a schedule fire and a
	// manual execute never interleave their history writes.
	runLocks sync.Map
}

func NewEngine(store persistence.Store, reg *registry.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		registry: reg,
		executor: NewExecutor(reg, logger),
		logger:   logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		entries: make(map[string]cron.EntryID),
	}
}

// Start brings existing scheduled automations back onto the cron and
// starts it.
func (e *Engine) Start(ctx context.Context) error {
	automations, err := e.store.Automations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load automations: %w", err)
	}

	for _, auto := range automations {
		if err := e.register(auto); err != nil {
			e.logger.ErrorContext(ctx, "failed to register schedule", "automation_id", auto.ID, "error", err)
		}
	}

	e.cron.Start()
	e.logger.InfoContext(ctx, "automation engine started", "automations", len(automations))

	return nil
}

// Stop halts the cron and waits for in-flight scheduled runs.
func (e *Engine) Stop(ctx context.Context) error {
	stopCtx := e.cron.Stop()

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	e.logger.InfoContext(ctx, "automation engine stopped")

	return nil
}

// Validate checks a definition without persisting it: the trigger must
// be well formed and every action configuration must match its schema.
func (e *Engine) Validate(auto *models.Automation) error {
	if !auto.Trigger.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrTriggerInvalid, auto.Trigger.Kind)
	}

	if auto.Trigger.Kind == models.TriggerScheduled {
		if auto.Trigger.Schedule == "" {
			return fmt.Errorf("%w: scheduled trigger requires a cron expression", ErrTriggerInvalid)
		}

		if _, err := cron.ParseStandard(auto.Trigger.Schedule); err != nil {
			return fmt.Errorf("%w: bad cron expression %q: %w", ErrTriggerInvalid, auto.Trigger.Schedule, err)
		}
	}

	for i, action := range auto.Actions {
		if err := e.registry.ValidateAction(action.Type, action.Config); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, action.Name, err)
		}

		switch action.OnError {
		case "", models.OnErrorContinue, models.OnErrorStop, models.OnErrorRetry:
		default:
			return fmt.Errorf("action %d (%s): unknown on_error policy %q", i, action.Name, action.OnError)
		}
	}

	return nil
}

// Create validates, persists and schedules a new automation.
func (e *Engine) Create(ctx context.Context, auto *models.Automation) (*models.Automation, error) {
	if auto.ID == "" {
		auto.ID = uuid.New().String()
	}

	if auto.Status == "" {
		auto.Status = models.AutomationActive
	}

	auto.Enabled = auto.Status == models.AutomationActive

	if auto.Trigger.Kind == models.TriggerWebhook {
		auto.Trigger.WebhookURL = "/api/automation/webhook/" + auto.ID
	}

	if err := e.Validate(auto); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	auto.CreatedAt = now
	auto.UpdatedAt = now

	if err := e.store.SaveAutomation(ctx, auto); err != nil {
		return nil, err
	}

	if err := e.register(auto); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "automation created",
		"automation_id", auto.ID, "trigger", auto.Trigger.Kind, "actions", len(auto.Actions))

	return auto, nil
}

// Update validates and persists changes, replacing any live schedule
// registration with one matching the new definition. It waits for any
// in-flight run, so the preserved RunCount/LastRun can never clobber a
// concurrent run's increment.
func (e *Engine) Update(ctx context.Context, auto *models.Automation) (*models.Automation, error) {
	lock := e.lockFor(auto.ID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := e.store.AutomationByID(ctx, auto.ID)
	if err != nil {
		return nil, err
	}

	auto.Enabled = auto.Status == models.AutomationActive

	if auto.Trigger.Kind == models.TriggerWebhook {
		auto.Trigger.WebhookURL = "/api/automation/webhook/" + auto.ID
	} else {
		auto.Trigger.WebhookURL = ""
	}

	if err := e.Validate(auto); err != nil {
		return nil, err
	}

	auto.CreatedAt = existing.CreatedAt
	auto.RunCount = existing.RunCount
	auto.LastRun = existing.LastRun
	auto.UpdatedAt = time.Now().UTC()

	e.unregister(auto.ID)

	if err := e.store.SaveAutomation(ctx, auto); err != nil {
		return nil, err
	}

	if err := e.register(auto); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "automation updated", "automation_id", auto.ID)

	return auto, nil
}

// Delete cancels any schedule registration before dropping the
// automation and its history. It waits for any in-flight run, so a
// finishing run cannot write the automation or its history back.
func (e *Engine) Delete(ctx context.Context, id string) error {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	e.unregister(id)

	if err := e.store.DeleteAutomation(ctx, id); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "automation deleted", "automation_id", id)

	return nil
}

// Execute runs the automation now and appends the run to its history.
// triggeredBy records the invocation source (manual, schedule, webhook).
// The automation is loaded under its run lock so a concurrent update or
// delete cannot interleave with the run's store writes.
func (e *Engine) Execute(ctx context.Context, id, triggeredBy string) (*models.Execution, error) {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	auto, err := e.store.AutomationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if auto.Status != models.AutomationActive {
		return nil, ErrAutomationDisabled
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "automation.execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("lumo.automation.id", id),
		attribute.String("lumo.automation.triggered_by", triggeredBy),
	)

	execution := e.executor.Run(ctx, auto, triggeredBy)

	span.SetAttributes(attribute.String("lumo.execution.status", string(execution.Status)))

	if err := e.store.AppendExecution(ctx, execution); err != nil {
		return nil, err
	}

	now := execution.StartedAt
	auto.RunCount++
	auto.LastRun = &now
	auto.UpdatedAt = time.Now().UTC()

	if err := e.store.SaveAutomation(ctx, auto); err != nil {
		return nil, err
	}

	return execution, nil
}

// History returns the retained run history, oldest first.
func (e *Engine) History(ctx context.Context, id string) ([]*models.Execution, error) {
	if _, err := e.store.AutomationByID(ctx, id); err != nil {
		return nil, err
	}

	return e.store.Executions(ctx, id)
}

func (e *Engine) lockFor(id string) *sync.Mutex {
	lock, _ := e.runLocks.LoadOrStore(id, &sync.Mutex{})

	return lock.(*sync.Mutex)
}

// register adds a cron entry for active scheduled automations. Callers
// must have removed any previous entry for the same automation first.
func (e *Engine) register(auto *models.Automation) error {
	if auto.Trigger.Kind != models.TriggerScheduled || auto.Status != models.AutomationActive {
		return nil
	}

	id := auto.ID

	entryID, err := e.cron.AddFunc(auto.Trigger.Schedule, func() {
		e.onScheduleFire(id)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron entry: %w", err)
	}

	e.mu.Lock()
	e.entries[id] = entryID
	e.mu.Unlock()

	e.logger.Info("registered schedule", "automation_id", id, "cron", auto.Trigger.Schedule)

	return nil
}

func (e *Engine) unregister(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entryID, ok := e.entries[id]; ok {
		e.cron.Remove(entryID)
		delete(e.entries, id)
	}
}

func (e *Engine) onScheduleFire(id string) {
	ctx := context.Background()

	if _, err := e.Execute(ctx, id, "schedule"); err != nil {
		// A fire can race a concurrent disable or delete.
		if errors.Is(err, ErrAutomationDisabled) || persistence.IsAutomationNotFound(err) {
			return
		}

		e.logger.ErrorContext(ctx, "scheduled run failed", "automation_id", id, "error", err)
	}
}
