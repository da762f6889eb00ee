package modules

import (
	"context"

	"github.com/riverqueue/river"

	"relaybot.io/relaybot/internal/admin"
	"relaybot.io/relaybot/internal/api/handlers"
	"relaybot.io/relaybot/internal/approval"
	"relaybot.io/relaybot/internal/jobs"
	"relaybot.io/relaybot/internal/quota"
)

// GovernanceModule owns the approval workflow, the admin registry and the
// quota ledger.
type GovernanceModule struct {
	Codes  *approval.Store
	Admins *admin.Registry
	Quotas *quota.Ledger
}

// NewGovernanceModule wires the governance services over the shared store.
func NewGovernanceModule(infra *Infrastructure) *GovernanceModule {
	codes := approval.NewStore(infra.Store.Approvals)
	admins := admin.NewRegistry(infra.Store.Admins, codes, infra.Config.Bot.ChiefAdminHash)
	quotas := quota.NewLedger(infra.Store.Quotas, admins, codes)

	return &GovernanceModule{
		Codes:  codes,
		Admins: admins,
		Quotas: quotas,
	}
}

// Name implements Module.
func (m *GovernanceModule) Name() string { return "governance" }

// ContributeServerDeps implements Module. Governance reaches the HTTP
// surface only through the bot pipeline.
func (m *GovernanceModule) ContributeServerDeps(*handlers.ServerDeps) {}

// RegisterWorkers implements Module.
func (m *GovernanceModule) RegisterWorkers(workers *river.Workers) {
	river.AddWorker(workers, jobs.NewApprovalSweepWorker(m.Codes))
}

// Shutdown implements Module.
func (m *GovernanceModule) Shutdown(context.Context) error { return nil }
