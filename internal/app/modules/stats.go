package modules

import (
	"context"

	"github.com/riverqueue/river"

	"relaybot.io/relaybot/internal/api/handlers"
	"relaybot.io/relaybot/internal/jobs"
	"relaybot.io/relaybot/internal/stats"
)

// StatsModule owns the chat statistics recorder and its cleanup job.
type StatsModule struct {
	Recorder *stats.Recorder
}

// NewStatsModule wires the statistics recorder over the shared store.
func NewStatsModule(infra *Infrastructure) *StatsModule {
	return &StatsModule{Recorder: stats.NewRecorder(infra.Store.Stats)}
}

// Name implements Module.
func (m *StatsModule) Name() string { return "stats" }

// ContributeServerDeps implements Module.
func (m *StatsModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Recorder = m.Recorder
}

// RegisterWorkers implements Module.
func (m *StatsModule) RegisterWorkers(workers *river.Workers) {
	river.AddWorker(workers, jobs.NewStatsCleanupWorker(m.Recorder))
}

// Shutdown implements Module.
func (m *StatsModule) Shutdown(context.Context) error { return nil }
