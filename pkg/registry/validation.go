package registry

import (
	"fmt"
	"strings"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// ConfigValidationError lists the schema violations of an action configuration.
type ConfigValidationError struct {
	ActionType models.ActionType
	Violations []string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid %s config: %s", e.ActionType, strings.Join(e.Violations, "; "))
}

// ValidateActionConfig checks an action node's nested configuration against the factory's JSON schema.
func (r *Registry) ValidateActionConfig(actionType models.ActionType, config map[string]any) error {
	r.mu.RLock()
	factory, ok := r.actionFactories[actionType]
	r.mu.RUnlock()

	if !ok {
		return &protocol.UnknownActionTypeError{Type: actionType}
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(factory.Schema()),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", actionType, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return &ConfigValidationError{ActionType: actionType, Violations: violations}
}

// ValidateNode runs the save-time checks of a node: its type is known, its factory accepts the
// configuration, and action nodes carry a known action type with a schema-valid configuration.
func (r *Registry) ValidateNode(node *models.WorkflowNode) error {
	r.mu.RLock()
	factory, ok := r.nodeFactories[node.Type]
	r.mu.RUnlock()

	if !ok {
		return &protocol.UnknownNodeTypeError{Type: node.Type}
	}

	if validator, ok := factory.(protocol.ConfigValidator); ok {
		err := validator.ValidateConfig(node)
		if err != nil {
			return err
		}
	}

	if node.Type == models.NodeTypeAction {
		return r.ValidateActionConfig(node.ActionType(), node.ActionConfig())
	}

	return nil
}
