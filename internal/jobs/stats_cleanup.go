package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"relaybot.io/relaybot/internal/stats"
)

// StatsCleanupArgs is the daily job that prunes blacklisted contents from
// the statistics aggregates.
type StatsCleanupArgs struct{}

// Kind returns the job kind identifier for the stats blacklist cleanup.
func (StatsCleanupArgs) Kind() string { return "stats_blacklist_cleanup" }

// InsertOpts ensures at most one cleanup job is enqueued within the same
// day.
func (StatsCleanupArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// StatsCleanupWorker prunes rows the current blacklist would reject.
type StatsCleanupWorker struct {
	river.WorkerDefaults[StatsCleanupArgs]
	recorder *stats.Recorder
}

// NewStatsCleanupWorker creates a cleanup worker.
func NewStatsCleanupWorker(recorder *stats.Recorder) *StatsCleanupWorker {
	return &StatsCleanupWorker{recorder: recorder}
}

// Work deletes blacklisted content rows.
func (w *StatsCleanupWorker) Work(ctx context.Context, _ *river.Job[StatsCleanupArgs]) error {
	if w == nil || w.recorder == nil {
		return fmt.Errorf("stats cleanup worker is not initialized")
	}

	if _, err := w.recorder.CleanupBlacklisted(ctx); err != nil {
		return fmt.Errorf("cleanup blacklisted stats: %w", err)
	}
	return nil
}
