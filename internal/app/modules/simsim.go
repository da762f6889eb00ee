package modules

import (
	"context"

	"github.com/riverqueue/river"

	"relaybot.io/relaybot/internal/api/handlers"
	"relaybot.io/relaybot/internal/simsim"
)

// SimSimModule owns the learned-reply service.
type SimSimModule struct {
	Service *simsim.Service
}

// NewSimSimModule wires the learned-reply service over the shared store.
func NewSimSimModule(infra *Infrastructure) *SimSimModule {
	return &SimSimModule{Service: simsim.NewService(infra.Store.SimSim)}
}

// Name implements Module.
func (m *SimSimModule) Name() string { return "simsim" }

// ContributeServerDeps implements Module. Learned replies reach the HTTP
// surface only through the bot pipeline.
func (m *SimSimModule) ContributeServerDeps(*handlers.ServerDeps) {}

// RegisterWorkers implements Module.
func (m *SimSimModule) RegisterWorkers(*river.Workers) {}

// Shutdown implements Module.
func (m *SimSimModule) Shutdown(context.Context) error { return nil }
