package tasks

import (
	"context"
	"errors"
)

var errRetentionDisabled = errors.New("event retention disabled")

// newEventLogPruneTask deletes events older than the configured retention.
func newEventLogPruneTask(deps TaskDeps) ScheduledTaskFunc {
	return timed(deps, EventLogPrune, func(ctx context.Context) ([]any, error) {
		retention := deps.Config.Scheduler.EventRetention
		if retention <= 0 {
			return nil, errRetentionDisabled
		}

		cutoff := deps.now().Add(-retention)
		removed, err := deps.Store.DeleteEventsBefore(ctx, cutoff)
		if err != nil {
			return []any{"cutoff", cutoff}, err
		}
		return []any{"removed", removed, "cutoff", cutoff}, nil
	})
}
