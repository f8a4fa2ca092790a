// Package tasks implements scheduled background tasks for ChatPulse:
// periodic chat reports and database maintenance.
package tasks

import (
	"context"
)

// ScheduledTaskFunc is the signature shared by all scheduled tasks. The
// scheduler's context must be respected for cancellation; returning an
// error lets the scheduler log the failure.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks initializes and returns the map of scheduled tasks.
// The keys match the task names used in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["daily_report"] = newDailyReportTask(deps)
	tasks["sql_maintenance"] = newSQLMaintenanceTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
