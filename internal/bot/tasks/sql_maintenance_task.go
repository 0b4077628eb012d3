package tasks

import (
	"context"
)

// newSQLMaintenanceTask vacuums the event log so pruned rows give their
// pages back to the filesystem.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	return timed(deps, SQLMaintenance, func(ctx context.Context) ([]any, error) {
		return nil, deps.Store.RunSQLMaintenance(ctx)
	})
}
