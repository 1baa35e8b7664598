package registry

import (
	"log/slog"
	"net/http"

	"github.com/aaiaas/automation/pkg/actions/ai"
	"github.com/aaiaas/automation/pkg/actions/delay"
	"github.com/aaiaas/automation/pkg/actions/httprequest"
	"github.com/aaiaas/automation/pkg/nodes/action"
	"github.com/aaiaas/automation/pkg/nodes/condition"
	"github.com/aaiaas/automation/pkg/nodes/transform"
	"github.com/aaiaas/automation/pkg/nodes/trigger"
)

// Dependencies are the collaborators of the built-in actions.
type Dependencies struct {
	AI         ai.Client
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// RegisterDefaults registers the four node types and the five action kinds.
// AI actions are only registered when an AI client is configured.
func (r *Registry) RegisterDefaults(deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = r.logger
	}

	r.RegisterNode(trigger.NewFactory())
	r.RegisterNode(action.NewFactory())
	r.RegisterNode(condition.NewFactory(logger))
	r.RegisterNode(transform.NewFactory())

	r.RegisterAction(httprequest.NewActionFactory(deps.HTTPClient, logger))
	r.RegisterAction(delay.NewActionFactory())

	if deps.AI != nil {
		r.RegisterAction(ai.NewChatActionFactory(deps.AI))
		r.RegisterAction(ai.NewCompletionActionFactory(deps.AI))
		r.RegisterAction(ai.NewEmbeddingsActionFactory(deps.AI))
	} else {
		logger.Warn("AI service not configured, ai_* actions are unavailable")
	}
}
