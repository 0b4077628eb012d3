package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, matching the keys of the scheduler.tasks config section.
const (
	SQLMaintenance = "sql_maintenance"
	EventLogPrune  = "event_log_prune"
)

// RegisterAllTasks initializes and returns a map of all registered scheduled tasks.
// Without a store there is nothing to maintain and the map is empty.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	if deps.Store == nil {
		deps.Logger.Info("Event log disabled, no scheduled tasks registered")
		return tasks
	}

	tasks[SQLMaintenance] = newSQLMaintenanceTask(deps)
	tasks[EventLogPrune] = newEventLogPruneTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

// timed wraps run with start/finish logging. run returns extra log
// attributes; errRetentionDisabled is reported as a skip, not a failure.
func timed(deps TaskDeps, name string, run func(ctx context.Context) ([]any, error)) ScheduledTaskFunc {
	log := deps.Logger.With("task", name)

	return func(ctx context.Context) error {
		log.DebugContext(ctx, "Task starting")
		start := time.Now()

		attrs, err := run(ctx)
		attrs = append(attrs, "duration", time.Since(start))

		switch {
		case errors.Is(err, errRetentionDisabled):
			log.InfoContext(ctx, "Task skipped", append(attrs, "reason", err.Error())...)
			return nil
		case err != nil:
			log.ErrorContext(ctx, "Task failed", append(attrs, "error", err)...)
			return fmt.Errorf("%s: %w", name, err)
		}

		log.InfoContext(ctx, "Task completed", attrs...)
		return nil
	}
}
