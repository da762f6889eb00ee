// Package jobs defines River Queue job types for background maintenance.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"relaybot.io/relaybot/internal/approval"
	"relaybot.io/relaybot/internal/pkg/logger"
)

// ApprovalSweepArgs is the periodic job that deletes expired approval
// codes.
type ApprovalSweepArgs struct{}

// Kind returns the job kind identifier for the approval code sweep.
func (ApprovalSweepArgs) Kind() string { return "approval_code_sweep" }

// InsertOpts keeps at most one sweep enqueued per interval. A failed
// sweep is not retried; the next period picks up the leftovers.
func (ApprovalSweepArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 5 * time.Minute,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// ApprovalSweepWorker removes expired approval codes.
type ApprovalSweepWorker struct {
	river.WorkerDefaults[ApprovalSweepArgs]
	codes *approval.Store
}

// NewApprovalSweepWorker creates a sweep worker.
func NewApprovalSweepWorker(codes *approval.Store) *ApprovalSweepWorker {
	return &ApprovalSweepWorker{codes: codes}
}

// Work deletes every code past its expiry.
func (w *ApprovalSweepWorker) Work(ctx context.Context, _ *river.Job[ApprovalSweepArgs]) error {
	if w == nil || w.codes == nil {
		return fmt.Errorf("approval sweep worker is not initialized")
	}

	deleted, err := w.codes.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep approval codes: %w", err)
	}

	if deleted > 0 {
		logger.Info("approval code sweep completed",
			zap.Int64("deleted_rows", deleted),
		)
	}
	return nil
}
