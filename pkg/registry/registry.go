// Package registry holds the catalog of automation action factories and
// validates action configurations against their schemas.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Action is one executable automation step.
type Action interface {
	// Execute runs the action. vars carries the outputs of earlier
	// actions in the sequence, keyed by action name.
	Execute(ctx context.Context, vars map[string]any, logger *slog.Logger) (any, error)
	Validate(ctx context.Context) error
}

// ActionFactory builds actions of one type from raw configuration.
type ActionFactory interface {
	Create(config map[string]any) (Action, error)
	ID() string
	Name() string
	Description() string
	Schema() map[string]any
}

// Registry maps action type identifiers to their factories.
type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// AvailableActions lists the registered action type identifiers.
func (r *Registry) AvailableActions() []string {
	types := make([]string, 0, len(r.actionFactories))
	for actionType := range r.actionFactories {
		types = append(types, actionType)
	}

	sort.Strings(types)

	return types
}

// CreateAction validates the configuration against the factory schema
// and builds the action.
func (r *Registry) CreateAction(actionType string, config map[string]any) (Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type '%s' not registered", actionType)
	}

	if err := validateConfig(factory.Schema(), config); err != nil {
		return nil, fmt.Errorf("invalid configuration for action type '%s': %w", actionType, err)
	}

	return factory.Create(config)
}

// ValidateAction checks a configuration without building the action.
func (r *Registry) ValidateAction(actionType string, config map[string]any) error {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return fmt.Errorf("action type '%s' not registered", actionType)
	}

	return validateConfig(factory.Schema(), config)
}

func validateConfig(schema, config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("configuration does not match schema: %s", strings.Join(details, "; "))
	}

	return nil
}
