package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleConfigKey is the trigger config entry holding a 5-field cron expression.
const ScheduleConfigKey = "schedule"

var ErrInvalidSchedule = errors.New("invalid cron schedule")

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a standard 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}

	return schedule, nil
}

// NextRun computes the next due time after ref.
func NextRun(expr string, ref time.Time) (time.Time, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(ref), nil
}

// Schedule returns the trigger's cron expression, if any.
func (n *WorkflowNode) Schedule() (string, bool) {
	if n.Type != NodeTypeTrigger || n.Config == nil {
		return "", false
	}

	expr, ok := n.Config[ScheduleConfigKey].(string)

	return expr, ok && expr != ""
}

// ScheduleInput returns the input a scheduled trigger fires with.
func (n *WorkflowNode) ScheduleInput() map[string]any {
	if n.Config == nil {
		return map[string]any{}
	}

	input, ok := n.Config["input"].(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return CloneMap(input)
}
