// Package models defines the workflow definition, execution context and run record types.
package models

// NodeType is the closed set of node kinds a workflow graph may contain.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeAction    NodeType = "action"
	NodeTypeCondition NodeType = "condition"
	NodeTypeTransform NodeType = "transform"
)

// NodeTypes lists every known node type in declaration order.
func NodeTypes() []NodeType {
	return []NodeType{NodeTypeTrigger, NodeTypeAction, NodeTypeCondition, NodeTypeTransform}
}

func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeTrigger, NodeTypeAction, NodeTypeCondition, NodeTypeTransform:
		return true
	default:
		return false
	}
}

// WorkflowNode is a single step in a workflow graph.
type WorkflowNode struct {
	ID     string         `json:"id"               validate:"required"`
	Type   NodeType       `json:"type"             validate:"required,oneof=trigger action condition transform"`
	Config map[string]any `json:"config,omitempty"`
	Next   []string       `json:"next"`
}

// ActionType returns the action discriminator for action nodes.
func (n *WorkflowNode) ActionType() ActionType {
	if n.Config == nil {
		return ""
	}

	actionType, _ := n.Config["actionType"].(string)

	return ActionType(actionType)
}

// ActionConfig returns the nested action configuration of an action node.
func (n *WorkflowNode) ActionConfig() map[string]any {
	if n.Config == nil {
		return map[string]any{}
	}

	config, ok := n.Config["config"].(map[string]any)
	if !ok || config == nil {
		return map[string]any{}
	}

	return config
}
