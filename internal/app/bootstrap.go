// Package app is the composition root; bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"relaybot.io/relaybot/internal/api/handlers"
	"relaybot.io/relaybot/internal/app/modules"
	"relaybot.io/relaybot/internal/config"
	"relaybot.io/relaybot/internal/infrastructure"
	"relaybot.io/relaybot/internal/jobs"
	"relaybot.io/relaybot/internal/pkg/worker"
	"relaybot.io/relaybot/internal/stats"
)

// Application holds composed application dependencies.
type Application struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *infrastructure.DatabaseClients
	Pools    *worker.Pools
	Modules  []modules.Module
	recorder *stats.Recorder
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	governance := modules.NewGovernanceModule(infra)
	statsMod := modules.NewStatsModule(infra)
	simMod := modules.NewSimSimModule(infra)
	botMod, err := modules.NewBotModule(governance, statsMod, simMod)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init bot module: %w", err)
	}

	allModules := []modules.Module{governance, statsMod, simMod, botMod}

	workers := river.NewWorkers()
	for _, mod := range allModules {
		mod.RegisterWorkers(workers)
	}
	if err := infra.InitRiver(workers); err != nil {
		infra.Close()
		return nil, fmt.Errorf("init river workers: %w", err)
	}

	// Expired approval codes are swept on the configured interval, and
	// once at startup to clear leftovers from the previous run.
	infra.RiverClient.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(cfg.Bot.SweepInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.ApprovalSweepArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	)
	// Stats blacklist pruning runs daily; startup cleanup is handled by a
	// detached maintenance task in Start.
	infra.RiverClient.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.StatsCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	)

	serverDeps := handlers.ServerDeps{Pools: infra.Pools}
	for _, mod := range allModules {
		mod.ContributeServerDeps(&serverDeps)
	}
	server := handlers.NewServer(serverDeps)

	return &Application{
		Config:   cfg,
		Router:   newRouter(cfg, server),
		DB:       infra.DB,
		Pools:    infra.Pools,
		Modules:  allModules,
		recorder: statsMod.Recorder,
	}, nil
}
