package bot_test

import (
	"context"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relaybot.io/relaybot/internal/admin"
	"relaybot.io/relaybot/internal/approval"
	"relaybot.io/relaybot/internal/bot"
	"relaybot.io/relaybot/internal/domain"
	"relaybot.io/relaybot/internal/gacha"
	"relaybot.io/relaybot/internal/quota"
	"relaybot.io/relaybot/internal/stats"
	"relaybot.io/relaybot/internal/testutil"
)

const chiefHash = "chief-hash"

func from(sender, content string) *domain.Message {
	return &domain.Message{
		RoomID:     "room-1",
		RoomName:   "lobby",
		SenderHash: sender,
		SenderName: sender,
		Content:    content,
		Time:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func handle(t *testing.T, h bot.Handler, msg *domain.Message) string {
	t.Helper()
	require.True(t, h.CanHandle(msg.Content), "handler rejected %q", msg.Content)
	reply, err := h.Handle(context.Background(), msg)
	require.NoError(t, err)
	return reply.Message
}

func TestAdminAddRequestAndApprove(t *testing.T) {
	codes := approval.NewStore(testutil.NewMemApprovalRepo())
	registry := admin.NewRegistry(testutil.NewMemAdminRepo(), codes, chiefHash)
	h := bot.NewAdminAddHandler(registry)

	text := handle(t, h, from("hash-a", "!adminadd"))
	m := regexp.MustCompile(`!adminadd ([A-Z0-9]{6})`).FindStringSubmatch(text)
	require.NotNil(t, m, "reply should carry the approval command: %s", text)

	// A non-chief approver is turned away in plain text.
	text = handle(t, h, from("hash-b", "!adminadd "+m[1]))
	require.Contains(t, text, "chief admin")

	text = handle(t, h, from(chiefHash, "!adminadd "+m[1]))
	require.Contains(t, text, "approved")

	ok, err := registry.IsAdmin(context.Background(), "hash-a")
	require.NoError(t, err)
	require.True(t, ok)

	// Codes are accepted case-insensitively.
	text = handle(t, h, from("hash-c", "!adminadd"))
	m = regexp.MustCompile(`!adminadd ([A-Z0-9]{6})`).FindStringSubmatch(text)
	require.NotNil(t, m)
	text = handle(t, h, from(chiefHash, "!adminadd "+strings.ToLower(m[1])))
	require.Contains(t, text, "approved")
}

func TestAdminRemoveAndList(t *testing.T) {
	codes := approval.NewStore(testutil.NewMemApprovalRepo())
	registry := admin.NewRegistry(testutil.NewMemAdminRepo(), codes, chiefHash)
	addH := bot.NewAdminAddHandler(registry)
	removeH := bot.NewAdminRemoveHandler(registry)
	listH := bot.NewAdminListHandler(registry)

	require.Contains(t, handle(t, listH, from("hash-a", "!adminlist")), "No admins")

	text := handle(t, addH, from("hash-a", "!adminadd"))
	code := regexp.MustCompile(`!adminadd ([A-Z0-9]{6})`).FindStringSubmatch(text)[1]
	handle(t, addH, from(chiefHash, "!adminadd "+code))

	require.Contains(t, handle(t, listH, from("hash-b", "!adminlist")), "hash-a")

	require.Contains(t, handle(t, removeH, from("hash-b", "!adminremove hash-a")), "chief admin")
	require.Contains(t, handle(t, removeH, from(chiefHash, "!adminremove")), "Usage")
	require.Contains(t, handle(t, removeH, from(chiefHash, "!adminremove hash-a")), "removed")
	require.Contains(t, handle(t, removeH, from(chiefHash, "!adminremove hash-a")), "not an admin")
}

func TestLimitCommands(t *testing.T) {
	codes := approval.NewStore(testutil.NewMemApprovalRepo())
	admins := staticAdmins{"admin-1": true}
	ledger := quota.NewLedger(testutil.NewMemQuotaRepo(), admins, codes)

	setH := bot.NewLimitSetHandler(ledger)
	approveH := bot.NewLimitApproveHandler(ledger)
	statusH := bot.NewLimitStatusHandler(ledger)
	removeH := bot.NewLimitRemoveHandler(ledger)

	require.Contains(t, handle(t, setH, from("hash-a", "!limitset")), "Usage")
	require.Contains(t, handle(t, setH, from("hash-a", "!limitset abc")), "positive number")
	require.Contains(t, handle(t, setH, from("hash-a", "!limitset -3")), "positive number")

	text := handle(t, setH, from("hash-a", "!limitset 5"))
	m := regexp.MustCompile(`!limitapprove ([A-Z0-9]{6})`).FindStringSubmatch(text)
	require.NotNil(t, m, "reply should carry the approval command: %s", text)

	require.Contains(t, handle(t, approveH, from("hash-a", "!limitapprove "+m[1])), "admins")
	require.Contains(t, handle(t, approveH, from("admin-1", "!limitapprove "+m[1])), "5 commands")
	require.Contains(t, handle(t, approveH, from("admin-1", "!limitapprove "+m[1])), "invalid, expired")

	require.Contains(t, handle(t, statusH, from("hash-a", "!limitstatus")), "0 of 5")

	require.Contains(t, handle(t, removeH, from("hash-a", "!limitremove")), "admins")
	require.Contains(t, handle(t, removeH, from("admin-1", "!limitremove")), "no longer")
	require.Contains(t, handle(t, statusH, from("hash-a", "!limitstatus")), "no daily limit")
	require.Contains(t, handle(t, removeH, from("admin-1", "!limitremove")), "no daily limit")
}

func TestDice(t *testing.T) {
	h := bot.NewDiceHandler(bot.NewRand(rand.NewSource(7)))

	require.False(t, h.CanHandle("!diced"))
	require.True(t, h.CanHandle("!dice"))
	require.True(t, h.CanHandle("!DICE 6"))

	require.Contains(t, handle(t, h, from("a", "!dice 1")), "Usage")
	require.Contains(t, handle(t, h, from("a", "!dice nope")), "Usage")

	re := regexp.MustCompile(`rolled (\d+) \(1-6\)`)
	for i := 0; i < 50; i++ {
		m := re.FindStringSubmatch(handle(t, h, from("a", "!dice 6")))
		require.NotNil(t, m)
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 6)
	}
}

func TestLotto(t *testing.T) {
	h := bot.NewLottoHandler(bot.NewRand(rand.NewSource(7)))

	text := handle(t, h, from("a", "!lotto"))
	parts := strings.Split(strings.TrimPrefix(text, "Your numbers: "), ", ")
	require.Len(t, parts, 6)

	seen := map[int]bool{}
	prev := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 45)
		require.False(t, seen[n], "duplicate number %d", n)
		require.Greater(t, n, prev, "numbers should be sorted")
		seen[n] = true
		prev = n
	}
}

func TestChoice(t *testing.T) {
	h := bot.NewChoiceHandler(bot.NewRand(rand.NewSource(7)))

	require.Contains(t, handle(t, h, from("a", "!choice pizza")), "two options")

	text := handle(t, h, from("a", "!choice pizza pasta salad"))
	picked := strings.TrimPrefix(text, "I pick: ")
	require.Contains(t, []string{"pizza", "pasta", "salad"}, picked)
}

func TestOddEven(t *testing.T) {
	h := bot.NewOddEvenHandler(bot.NewRand(rand.NewSource(7)))

	require.True(t, h.CanHandle("!odd"))
	require.True(t, h.CanHandle("!even"))
	require.False(t, h.CanHandle("!oddly"))

	re := regexp.MustCompile(`The number was (\d+) \((odd|even)\)\. (You win!|You lose\.)`)
	for _, guess := range []string{"!odd", "!even"} {
		m := re.FindStringSubmatch(handle(t, h, from("a", guess)))
		require.NotNil(t, m)
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		wantParity := "even"
		if n%2 == 1 {
			wantParity = "odd"
		}
		require.Equal(t, wantParity, m[2])

		won := m[3] == "You win!"
		require.Equal(t, ("!"+m[2]) == guess, won)
	}
}

func TestConch(t *testing.T) {
	h := bot.NewConchHandler(bot.NewRand(rand.NewSource(7)))

	require.True(t, h.CanHandle("oh Magic Conch, will I pass?"))
	require.False(t, h.CanHandle("conch"))

	require.NotEmpty(t, handle(t, h, from("a", "magic conch help me")))
}

func TestJudge(t *testing.T) {
	h := bot.NewJudgeHandler(bot.NewRand(rand.NewSource(7)))

	require.Contains(t, handle(t, h, from("a", "!judge")), "Usage")
	require.Regexp(t, `scores \d+% on the truth meter`, handle(t, h, from("a", "!judge cats are liquid")))
}

func TestGachaHandler(t *testing.T) {
	table, err := gacha.Load()
	require.NoError(t, err)
	h := bot.NewGachaHandler(table, bot.NewRand(rand.NewSource(7)))

	require.Regexp(t, `a pulled \[[A-Z]+\] .+!`, handle(t, h, from("a", "!gacha")))
}

func TestStatsCommands(t *testing.T) {
	repo := testutil.NewMemStatsRepo()
	recorder := stats.NewRecorder(repo)
	ctx := context.Background()

	for _, m := range []*domain.Message{
		from("alice", "good morning"),
		from("alice", "good morning"),
		from("alice", "anyone around?"),
		from("bob", "good morning"),
	} {
		require.NoError(t, recorder.RecordMessage(ctx, m))
	}

	rankingH := bot.NewRankingHandler(recorder)
	text := handle(t, rankingH, from("bob", "!ranking"))
	require.Contains(t, text, "1. alice (3 messages)")
	require.Contains(t, text, "2. bob (1 messages)")

	myRankH := bot.NewMyRankHandler(recorder)
	require.Contains(t, handle(t, myRankH, from("bob", "!myrank")), "#2 of 2")
	require.Contains(t, handle(t, myRankH, from("carol", "!myrank")), "no recorded messages")

	roomInfoH := bot.NewRoomInfoHandler(recorder)
	text = handle(t, roomInfoH, from("bob", "!roominfo"))
	require.Contains(t, text, "4 messages from 2 senders")
	require.Contains(t, text, `"good morning" (3 times)`)

	empty := from("bob", "!roominfo")
	empty.RoomID = "room-9"
	require.Contains(t, handle(t, roomInfoH, empty), "No messages recorded")
}

func fromAt(sender, content string, at time.Time) *domain.Message {
	m := from(sender, content)
	m.Time = at
	return m
}

func TestActivityCommands(t *testing.T) {
	recorder := stats.NewRecorder(testutil.NewMemStatsRepo())
	ctx := context.Background()

	sunday := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)
	april := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for _, m := range []*domain.Message{
		fromAt("alice", "good morning", sunday),
		fromAt("alice", "lunch anyone?", sunday),
		fromAt("alice", "back again", monday),
		fromAt("bob", "spring is here", april),
	} {
		require.NoError(t, recorder.RecordMessage(ctx, m))
	}

	dailyH := bot.NewDailyStatsHandler(recorder)
	text := handle(t, dailyH, from("bob", "!dailystats"))
	require.Contains(t, text, "Messages by weekday:")
	require.Contains(t, text, "Busiest: Sun (2 messages)")
	require.Contains(t, text, "Mon")
	require.Contains(t, text, "Wed")

	myDailyH := bot.NewMyDailyStatsHandler(recorder)
	text = handle(t, myDailyH, from("bob", "!mydailystats"))
	require.Contains(t, text, "bob, your messages by weekday:")
	require.Contains(t, text, "Busiest: Wed (1 messages)")
	require.Contains(t, handle(t, myDailyH, from("carol", "!mydailystats")), "no recorded messages")

	monthlyH := bot.NewMonthlyStatsHandler(recorder)
	text = handle(t, monthlyH, from("bob", "!monthlystats"))
	require.Contains(t, text, "Messages by month:")
	require.Contains(t, text, "Mar: 3")
	require.Contains(t, text, "Apr: 1")

	myMonthlyH := bot.NewMyMonthlyStatsHandler(recorder)
	text = handle(t, myMonthlyH, from("alice", "!mymonthlystats"))
	require.Contains(t, text, "Mar: 3")
	require.NotContains(t, text, "Apr")

	empty := from("bob", "!dailystats")
	empty.RoomID = "room-9"
	require.Contains(t, handle(t, dailyH, empty), "No messages recorded")
}

func TestRankingToggleCommands(t *testing.T) {
	recorder := stats.NewRecorder(testutil.NewMemStatsRepo())
	admins := staticAdmins{"admin-1": true}
	ctx := context.Background()

	onH := bot.NewRankingOnHandler(recorder, admins)
	offH := bot.NewRankingOffHandler(recorder, admins)

	require.Contains(t, handle(t, offH, from("hash-a", "!rankingoff")), "admins")
	require.Contains(t, handle(t, onH, from("admin-1", "!rankingon")), "already enabled")

	require.Contains(t, handle(t, offH, from("admin-1", "!rankingoff")), "no longer recorded")
	require.Contains(t, handle(t, offH, from("admin-1", "!rankingoff")), "already disabled")

	require.NoError(t, recorder.RecordMessage(ctx, from("alice", "off the record")))
	contents, err := recorder.TopContents(ctx, "room-1", 10)
	require.NoError(t, err)
	require.Empty(t, contents)

	top, err := recorder.TopSenders(ctx, "room-1", 10)
	require.NoError(t, err)
	require.Len(t, top, 1, "sender counters keep moving while contents are off")

	require.Contains(t, handle(t, onH, from("admin-1", "!rankingon")), "now recorded")
	require.NoError(t, recorder.RecordMessage(ctx, from("alice", "on the record")))
	contents, err = recorder.TopContents(ctx, "room-1", 10)
	require.NoError(t, err)
	require.Len(t, contents, 1)
}

func TestHelpListsEveryCommand(t *testing.T) {
	registry := bot.NewRegistry()
	r := bot.NewRand(rand.NewSource(7))
	registry.Register(
		bot.NewDiceHandler(r),
		bot.NewLottoHandler(r),
		bot.NewChoiceHandler(r),
	)
	registry.Register(bot.NewHelpHandler(registry))

	h := registry.Find("!help")
	require.NotNil(t, h)

	text := handle(t, h, from("a", "!help"))
	for _, reg := range registry.Handlers() {
		require.Contains(t, text, reg.Command())
	}
}
