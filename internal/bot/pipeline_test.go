package bot_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relaybot.io/relaybot/internal/approval"
	"relaybot.io/relaybot/internal/bot"
	"relaybot.io/relaybot/internal/domain"
	"relaybot.io/relaybot/internal/pkg/logger"
	"relaybot.io/relaybot/internal/quota"
	"relaybot.io/relaybot/internal/stats"
	"relaybot.io/relaybot/internal/testutil"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", "json"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type pipelineFixture struct {
	pipeline  *bot.Pipeline
	registry  *bot.Registry
	statsRepo *testutil.MemStatsRepo
	quotaRepo *testutil.MemQuotaRepo
	ledger    *quota.Ledger
}

func newPipelineFixture(t *testing.T, admins map[string]bool, handlers ...bot.Handler) *pipelineFixture {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	statsRepo := testutil.NewMemStatsRepo()
	quotaRepo := testutil.NewMemQuotaRepo()
	codes := approval.NewStore(testutil.NewMemApprovalRepo())

	checker := staticAdmins(admins)
	ledger := quota.NewLedgerWithClock(quotaRepo, checker, codes, func() time.Time { return now })
	recorder := stats.NewRecorder(statsRepo)

	registry := bot.NewRegistry()
	registry.Register(handlers...)

	return &pipelineFixture{
		pipeline:  bot.NewPipeline(registry, recorder, ledger),
		registry:  registry,
		statsRepo: statsRepo,
		quotaRepo: quotaRepo,
		ledger:    ledger,
	}
}

type staticAdmins map[string]bool

func (s staticAdmins) IsAdmin(_ context.Context, hash string) (bool, error) {
	return s[hash], nil
}

func chat(content string) *domain.Message {
	return &domain.Message{
		RoomID:     "room-1",
		RoomName:   "lobby",
		SenderHash: "hash-a",
		SenderName: "alice",
		Content:    content,
		Time:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestUnmatchedMessageIsSilent(t *testing.T) {
	f := newPipelineFixture(t, nil,
		&stubHandler{name: "!ping", match: exact("!ping"), reply: "pong"})

	reply := f.pipeline.HandleMessage(context.Background(), chat("just chatting"))
	require.True(t, reply.IsEmpty())

	// The message still lands in statistics.
	top, err := f.statsRepo.TopSenders(context.Background(), "room-1", 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

func TestMatchedCommandReplies(t *testing.T) {
	f := newPipelineFixture(t, nil,
		&stubHandler{name: "!ping", match: exact("!ping"), reply: "pong"})

	reply := f.pipeline.HandleMessage(context.Background(), chat("!ping"))
	require.Equal(t, domain.ActionSendText, reply.Action)
	require.Equal(t, "pong", reply.Message)

	// Command text is blacklisted from statistics.
	top, err := f.statsRepo.TopSenders(context.Background(), "room-1", 10)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestQuotaEnforcedAcrossMessages(t *testing.T) {
	f := newPipelineFixture(t, map[string]bool{"admin-1": true},
		&stubHandler{name: "!ping", match: exact("!ping"), reply: "pong"})
	ctx := context.Background()

	_, err := f.ledger.SetLimit(ctx, "room-1", "lobby", 3, "admin-1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		reply := f.pipeline.HandleMessage(ctx, chat("!ping"))
		require.Equal(t, "pong", reply.Message, "command %d", i+1)
	}

	reply := f.pipeline.HandleMessage(ctx, chat("!ping"))
	require.Contains(t, reply.Message, "daily limit")
	require.Contains(t, reply.Message, "3/3")

	// Plain chatter and unmatched text never consume quota.
	reply = f.pipeline.HandleMessage(ctx, chat("hello"))
	require.True(t, reply.IsEmpty())

	// Admins keep going.
	adminMsg := chat("!ping")
	adminMsg.SenderHash = "admin-1"
	reply = f.pipeline.HandleMessage(ctx, adminMsg)
	require.Equal(t, "pong", reply.Message)
}

func TestExemptCommandBypassesQuota(t *testing.T) {
	f := newPipelineFixture(t, map[string]bool{"admin-1": true},
		&stubHandler{name: "!ping", match: exact("!ping"), reply: "pong"},
		&stubHandler{name: "!manage", match: exact("!manage"), reply: "ok", exempt: true})
	ctx := context.Background()

	_, err := f.ledger.SetLimit(ctx, "room-1", "lobby", 1, "admin-1")
	require.NoError(t, err)

	require.Equal(t, "pong", f.pipeline.HandleMessage(ctx, chat("!ping")).Message)
	require.Contains(t, f.pipeline.HandleMessage(ctx, chat("!ping")).Message, "daily limit")

	// Management stays reachable after the limit is exhausted.
	for i := 0; i < 5; i++ {
		require.Equal(t, "ok", f.pipeline.HandleMessage(ctx, chat("!manage")).Message)
	}
}

func TestHandlerErrorYieldsGenericReply(t *testing.T) {
	f := newPipelineFixture(t, nil,
		&stubHandler{name: "!boom", match: exact("!boom"), err: errors.New("db down")})

	reply := f.pipeline.HandleMessage(context.Background(), chat("!boom"))
	require.Contains(t, reply.Message, "Something went wrong")
}

func TestScenarioLimitThree(t *testing.T) {
	// A room with limit 3: three distinct commands succeed, the fourth
	// attempt of any kind is rejected, and an exempt status command
	// still answers.
	f := newPipelineFixture(t, map[string]bool{"admin-1": true},
		&stubHandler{name: "!one", match: exact("!one"), reply: "1"},
		&stubHandler{name: "!two", match: exact("!two"), reply: "2"},
		&stubHandler{name: "!three", match: exact("!three"), reply: "3"},
	)
	f.registry.Register(bot.NewLimitStatusHandler(f.ledger))
	ctx := context.Background()

	_, err := f.ledger.SetLimit(ctx, "room-1", "lobby", 3, "admin-1")
	require.NoError(t, err)

	for i, cmd := range []string{"!one", "!two", "!three"} {
		reply := f.pipeline.HandleMessage(ctx, chat(cmd))
		require.Equal(t, fmt.Sprintf("%d", i+1), reply.Message)
	}

	reply := f.pipeline.HandleMessage(ctx, chat("!one"))
	require.Contains(t, reply.Message, "3/3")

	reply = f.pipeline.HandleMessage(ctx, chat("!limitstatus"))
	require.Contains(t, reply.Message, "3 of 3")
}
