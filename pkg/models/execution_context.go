package models

// WorkflowContext is the mutable state of a single run. It is never shared across runs.
type WorkflowContext struct {
	ExecutionID    string         `json:"execution_id"`
	OrganizationID string         `json:"organization_id"`
	UserID         string         `json:"user_id"`
	Variables      map[string]any `json:"variables,omitempty"`
}

// APIKeyVariable names the context variable holding the bearer credential for AI calls.
const APIKeyVariable = "apiKey"

// ResultKey is the variable name a node's result is stored under.
func ResultKey(nodeID string) string {
	return "node_" + nodeID
}

func (c *WorkflowContext) APIKey() string {
	if c.Variables == nil {
		return ""
	}

	key, _ := c.Variables[APIKeyVariable].(string)

	return key
}

func (c *WorkflowContext) Set(key string, value any) {
	if c.Variables == nil {
		c.Variables = make(map[string]any)
	}

	c.Variables[key] = value
}

// SnapshotVariables returns a shallow copy of the current variables.
func (c *WorkflowContext) SnapshotVariables() map[string]any {
	snapshot := make(map[string]any, len(c.Variables))
	for k, v := range c.Variables {
		snapshot[k] = v
	}

	return snapshot
}
