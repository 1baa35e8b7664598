// Package delay provides the action that pauses a run for a fixed duration.
package delay

import (
	"context"
	"errors"
	"time"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
	"github.com/aaiaas/automation/pkg/template"
)

var ErrNegativeDuration = errors.New("delay duration must not be negative")

// Action waits for the configured number of milliseconds without performing I/O.
type Action struct{}

func NewAction() *Action {
	return &Action{}
}

// Execute returns {delayed: <ms>} once the wait elapses, or the context error if cancelled first.
func (a *Action) Execute(ctx context.Context, config map[string]any, wctx *models.WorkflowContext) (any, error) {
	interpolated, _ := template.InterpolateValue(config, wctx.Variables).(map[string]any)

	var cfg models.DelayConfig

	err := models.DecodeConfig(interpolated, &cfg)
	if err != nil {
		return nil, err
	}

	duration := models.DefaultDelayMilliseconds
	if cfg.Duration != nil {
		duration = *cfg.Duration
	}

	if duration < 0 {
		return nil, ErrNegativeDuration
	}

	timer := time.NewTimer(time.Duration(duration) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return map[string]any{"delayed": duration}, nil
}

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (f *ActionFactory) Create() (protocol.Action, error) {
	return NewAction(), nil
}

func (f *ActionFactory) ID() models.ActionType {
	return models.ActionTypeDelay
}

func (f *ActionFactory) Name() string {
	return "Delay"
}

func (f *ActionFactory) Description() string {
	return "Pauses the run for a number of milliseconds."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "integer",
				"description": "Delay in milliseconds",
				"default":     models.DefaultDelayMilliseconds,
				"minimum":     0,
			},
		},
		"additionalProperties": false,
	}
}
