package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"relaybot.io/relaybot/internal/pkg/logger"
)

// Start starts the background services: River workers and the startup
// blacklist cleanup.
func (a *Application) Start(ctx context.Context) error {
	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Start(ctx); err != nil {
			return fmt.Errorf("start river client: %w", err)
		}
		logger.Info("River client started, jobs will now be consumed")
	}

	// Prune statistics rows that predate the current blacklist. Detached:
	// startup must not block on it.
	if a.recorder != nil {
		err := a.Pools.SubmitDetached("maintenance", func(ctx context.Context) {
			if _, err := a.recorder.CleanupBlacklisted(ctx); err != nil {
				logger.Warn("startup blacklist cleanup failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("could not schedule startup blacklist cleanup", zap.Error(err))
		}
	}
	return nil
}

// Shutdown gracefully shuts down all application components.
func (a *Application) Shutdown() {
	shutdownCtx := context.Background()

	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop river client", zap.Error(err))
		}
		logger.Info("River client stopped")
	}

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(shutdownCtx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
