// Package registry holds the node evaluator and action factories used by the engine.
package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
)

var ErrNoNodeFactories = errors.New("no node factories registered")

type Registry struct {
	logger          *slog.Logger
	mu              sync.RWMutex
	nodeFactories   map[models.NodeType]protocol.NodeFactory
	actionFactories map[models.ActionType]protocol.ActionFactory
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger.With("module", "registry"),
		nodeFactories:   make(map[models.NodeType]protocol.NodeFactory),
		actionFactories: make(map[models.ActionType]protocol.ActionFactory),
	}
}

// RegisterNode registers a node factory, replacing any factory for the same node type.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodeFactories[factory.ID()] = factory
	r.logger.Debug("registered node factory", "type", factory.ID())
}

// RegisterAction registers an action factory, replacing any factory for the same action type.
func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actionFactories[factory.ID()] = factory
	r.logger.Debug("registered action factory", "type", factory.ID())
}

// Evaluator returns the evaluator for a node type.
func (r *Registry) Evaluator(nodeType models.NodeType) (protocol.NodeEvaluator, error) {
	r.mu.RLock()
	factory, ok := r.nodeFactories[nodeType]
	r.mu.RUnlock()

	if !ok {
		return nil, &protocol.UnknownNodeTypeError{Type: nodeType}
	}

	evaluator, err := factory.Create(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s evaluator: %w", nodeType, err)
	}

	return evaluator, nil
}

// Action returns the action implementation for an action type.
func (r *Registry) Action(actionType models.ActionType) (protocol.Action, error) {
	r.mu.RLock()
	factory, ok := r.actionFactories[actionType]
	r.mu.RUnlock()

	if !ok {
		return nil, &protocol.UnknownActionTypeError{Type: actionType}
	}

	action, err := factory.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s action: %w", actionType, err)
	}

	return action, nil
}

func (r *Registry) HasNode(nodeType models.NodeType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.nodeFactories[nodeType]

	return ok
}

// ActionFactories returns the registered action factories ordered by type.
func (r *Registry) ActionFactories() []protocol.ActionFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.ActionFactory, 0, len(r.actionFactories))
	for _, factory := range r.actionFactories {
		factories = append(factories, factory)
	}

	slices.SortFunc(factories, func(a, b protocol.ActionFactory) int {
		return cmp.Compare(a.ID(), b.ID())
	})

	return factories
}

// NodeFactories returns the registered node factories ordered by type.
func (r *Registry) NodeFactories() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		factories = append(factories, factory)
	}

	slices.SortFunc(factories, func(a, b protocol.NodeFactory) int {
		return cmp.Compare(a.ID(), b.ID())
	})

	return factories
}

// HealthCheck reports whether every node type has an evaluator.
func (r *Registry) HealthCheck(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.nodeFactories) == 0 {
		return ErrNoNodeFactories
	}

	for _, nodeType := range models.NodeTypes() {
		if _, ok := r.nodeFactories[nodeType]; !ok {
			return &protocol.UnknownNodeTypeError{Type: nodeType}
		}
	}

	return nil
}
