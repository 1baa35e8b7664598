package models

import "time"

// WorkflowDefinition is the static description of an automation owned by an organization.
type WorkflowDefinition struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Name           string          `json:"name"                  validate:"required,min=1"`
	Description    string          `json:"description,omitempty"`
	Nodes          []*WorkflowNode `json:"nodes"                 validate:"required,min=1,dive"`
	Variables      map[string]any  `json:"variables,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TriggerNode returns the first node of type trigger.
func (w *WorkflowDefinition) TriggerNode() (*WorkflowNode, bool) {
	for _, node := range w.Nodes {
		if node != nil && node.Type == NodeTypeTrigger {
			return node, true
		}
	}

	return nil, false
}

func (w *WorkflowDefinition) NodeByID(id string) (*WorkflowNode, bool) {
	for _, node := range w.Nodes {
		if node != nil && node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// Snapshot returns a deep copy so a running execution never observes later edits.
func (w *WorkflowDefinition) Snapshot() *WorkflowDefinition {
	clone := *w
	clone.Variables = CloneMap(w.Variables)
	clone.Nodes = make([]*WorkflowNode, 0, len(w.Nodes))

	for _, node := range w.Nodes {
		if node == nil {
			continue
		}

		n := *node
		n.Config = CloneMap(node.Config)
		n.Next = append([]string(nil), node.Next...)
		clone.Nodes = append(clone.Nodes, &n)
	}

	return &clone
}

// CloneMap deep-copies nested maps and slices; other values are shared.
func CloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}

	return dst
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return CloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}

		return out
	default:
		return v
	}
}
