package modules

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/riverqueue/river"

	"relaybot.io/relaybot/internal/api/handlers"
	"relaybot.io/relaybot/internal/bot"
	"relaybot.io/relaybot/internal/gacha"
)

// BotModule owns the command registry and the message pipeline.
type BotModule struct {
	Registry *bot.Registry
	Pipeline *bot.Pipeline
}

// NewBotModule builds the command set and the pipeline.
//
// Registration order is load-bearing: Find returns the first accepting
// handler, so prefix commands that shadow each other must be ordered
// from most to least specific. Keep new commands grouped with their
// kind and check for prefix overlap before appending.
func NewBotModule(gov *GovernanceModule, statsMod *StatsModule, simMod *SimSimModule) (*BotModule, error) {
	table, err := gacha.Load()
	if err != nil {
		return nil, fmt.Errorf("load gacha table: %w", err)
	}
	rng := bot.NewRand(rand.NewSource(time.Now().UnixNano()))

	registry := bot.NewRegistry()

	// Management commands: quota-exempt so they stay reachable in rooms
	// that exhausted their limit.
	registry.Register(
		bot.NewAdminAddHandler(gov.Admins),
		bot.NewAdminRemoveHandler(gov.Admins),
		bot.NewAdminListHandler(gov.Admins),
		bot.NewLimitSetHandler(gov.Quotas),
		bot.NewLimitApproveHandler(gov.Quotas),
		bot.NewLimitRemoveHandler(gov.Quotas),
		bot.NewLimitStatusHandler(gov.Quotas),
		bot.NewRankingOnHandler(statsMod.Recorder, gov.Admins),
		bot.NewRankingOffHandler(statsMod.Recorder, gov.Admins),
		bot.NewSimDeleteHandler(simMod.Service, gov.Admins),
	)

	registry.Register(
		bot.NewDiceHandler(rng),
		bot.NewLottoHandler(rng),
		bot.NewChoiceHandler(rng),
		bot.NewOddEvenHandler(rng),
		bot.NewConchHandler(rng),
		bot.NewJudgeHandler(rng),
		bot.NewGachaHandler(table, rng),
	)

	registry.Register(
		bot.NewSimAddHandler(simMod.Service),
		bot.NewSimCountHandler(simMod.Service),
		bot.NewSimRankingHandler(simMod.Service),
		bot.NewSimQueryHandler(simMod.Service, rng),
	)

	registry.Register(
		bot.NewRankingHandler(statsMod.Recorder),
		bot.NewMyRankHandler(statsMod.Recorder),
		bot.NewRoomInfoHandler(statsMod.Recorder),
		bot.NewDailyStatsHandler(statsMod.Recorder),
		bot.NewMyDailyStatsHandler(statsMod.Recorder),
		bot.NewMonthlyStatsHandler(statsMod.Recorder),
		bot.NewMyMonthlyStatsHandler(statsMod.Recorder),
	)

	// Help goes last so it sees the full command set.
	registry.Register(bot.NewHelpHandler(registry))

	return &BotModule{
		Registry: registry,
		Pipeline: bot.NewPipeline(registry, statsMod.Recorder, gov.Quotas),
	}, nil
}

// Name implements Module.
func (m *BotModule) Name() string { return "bot" }

// ContributeServerDeps implements Module.
func (m *BotModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Pipeline = m.Pipeline
}

// RegisterWorkers implements Module.
func (m *BotModule) RegisterWorkers(*river.Workers) {}

// Shutdown implements Module.
func (m *BotModule) Shutdown(context.Context) error { return nil }
