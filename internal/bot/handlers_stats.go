package bot

import (
	"context"
	"fmt"
	"strings"

	"relaybot.io/relaybot/internal/domain"
	apperrors "relaybot.io/relaybot/internal/pkg/errors"
	"relaybot.io/relaybot/internal/stats"
)

// rankingHandler lists the room's most talkative senders.
type rankingHandler struct {
	meta
	recorder *stats.Recorder
}

// NewRankingHandler creates the !ranking command.
func NewRankingHandler(recorder *stats.Recorder) Handler {
	return &rankingHandler{
		meta: meta{
			command:     "!ranking",
			description: "show this room's top senders",
		},
		recorder: recorder,
	}
}

func (h *rankingHandler) CanHandle(text string) bool {
	return matchExact(text, "!ranking")
}

func (h *rankingHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	top, err := h.recorder.TopSenders(ctx, msg.RoomID, 10)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if len(top) == 0 {
		return domain.TextReply(msg.RoomID, "No messages recorded in this room yet."), nil
	}

	var b strings.Builder
	b.WriteString("Top senders:\n")
	for i, sc := range top {
		fmt.Fprintf(&b, "%d. %s (%d messages)\n", i+1, sc.SenderName, sc.Count)
	}
	return domain.TextReply(msg.RoomID, strings.TrimRight(b.String(), "\n")), nil
}

// myRankHandler shows the sender's own position in the room ranking.
type myRankHandler struct {
	meta
	recorder *stats.Recorder
}

// NewMyRankHandler creates the !myrank command.
func NewMyRankHandler(recorder *stats.Recorder) Handler {
	return &myRankHandler{
		meta: meta{
			command:     "!myrank",
			description: "show your rank in this room",
		},
		recorder: recorder,
	}
}

func (h *myRankHandler) CanHandle(text string) bool {
	return matchExact(text, "!myrank")
}

func (h *myRankHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	rank, err := h.recorder.SenderRank(ctx, msg.RoomID, msg.SenderHash)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if rank.Position == 0 {
		return domain.TextReply(msg.RoomID, "You have no recorded messages in this room yet."), nil
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"%s, you are #%d of %d with %d messages.",
		msg.SenderName, rank.Position, rank.Of, rank.Count,
	)), nil
}

// roomInfoHandler summarizes this room's traffic and repeated contents.
type roomInfoHandler struct {
	meta
	recorder *stats.Recorder
}

// NewRoomInfoHandler creates the !roominfo command.
func NewRoomInfoHandler(recorder *stats.Recorder) Handler {
	return &roomInfoHandler{
		meta: meta{
			command:     "!roominfo",
			description: "show this room's traffic summary",
		},
		recorder: recorder,
	}
}

func (h *roomInfoHandler) CanHandle(text string) bool {
	return matchExact(text, "!roominfo")
}

func (h *roomInfoHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	totals, err := h.recorder.RoomTotals(ctx)
	if err != nil {
		return replyOrErr(msg, err)
	}

	var total *stats.RoomTotal
	for i := range totals {
		if totals[i].RoomID == msg.RoomID {
			total = &totals[i]
			break
		}
	}
	if total == nil {
		return domain.TextReply(msg.RoomID, "No messages recorded in this room yet."), nil
	}

	top, err := h.recorder.TopContents(ctx, msg.RoomID, 3)
	if err != nil {
		return replyOrErr(msg, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d messages from %d senders.",
		total.RoomName, total.MessageCount, total.SenderCount)
	if len(top) > 0 {
		b.WriteString("\nMost repeated:")
		for _, cc := range top {
			fmt.Fprintf(&b, "\n- %q (%d times)", cc.Content, cc.Count)
		}
	}
	return domain.TextReply(msg.RoomID, b.String()), nil
}

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// weekdayChart renders a per-weekday bar chart, Sunday first.
func weekdayChart(counts [7]int) string {
	max := 0
	peak := 0
	for i, c := range counts {
		if c > max {
			max = c
			peak = i
		}
	}

	const barWidth = 8
	var b strings.Builder
	for i, c := range counts {
		bar := ""
		if max > 0 {
			bar = strings.Repeat("#", c*barWidth/max)
		}
		fmt.Fprintf(&b, "%s %s %d\n", weekdayNames[i], bar, c)
	}
	fmt.Fprintf(&b, "Busiest: %s (%d messages)", weekdayNames[peak], max)
	return b.String()
}

// monthList renders the non-zero months with their counts.
func monthList(counts [12]int) string {
	var b strings.Builder
	for i, c := range counts {
		if c == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %d\n", monthNames[i], c)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sum(counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// dailyStatsHandler charts the room's traffic by weekday.
type dailyStatsHandler struct {
	meta
	recorder *stats.Recorder
}

// NewDailyStatsHandler creates the !dailystats command.
func NewDailyStatsHandler(recorder *stats.Recorder) Handler {
	return &dailyStatsHandler{
		meta: meta{
			command:     "!dailystats",
			description: "chart this room's messages by weekday",
		},
		recorder: recorder,
	}
}

func (h *dailyStatsHandler) CanHandle(text string) bool {
	return matchExact(text, "!dailystats")
}

func (h *dailyStatsHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	counts, err := h.recorder.WeekdayActivity(ctx, msg.RoomID, "")
	if err != nil {
		return replyOrErr(msg, err)
	}
	if sum(counts[:]) == 0 {
		return domain.TextReply(msg.RoomID, "No messages recorded in this room yet."), nil
	}
	return domain.TextReply(msg.RoomID, "Messages by weekday:\n"+weekdayChart(counts)), nil
}

// myDailyStatsHandler charts the sender's own traffic by weekday.
type myDailyStatsHandler struct {
	meta
	recorder *stats.Recorder
}

// NewMyDailyStatsHandler creates the !mydailystats command.
func NewMyDailyStatsHandler(recorder *stats.Recorder) Handler {
	return &myDailyStatsHandler{
		meta: meta{
			command:     "!mydailystats",
			description: "chart your messages by weekday",
		},
		recorder: recorder,
	}
}

func (h *myDailyStatsHandler) CanHandle(text string) bool {
	return matchExact(text, "!mydailystats")
}

func (h *myDailyStatsHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	counts, err := h.recorder.WeekdayActivity(ctx, msg.RoomID, msg.SenderHash)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if sum(counts[:]) == 0 {
		return domain.TextReply(msg.RoomID, "You have no recorded messages in this room yet."), nil
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"%s, your messages by weekday:\n%s", msg.SenderName, weekdayChart(counts),
	)), nil
}

// monthlyStatsHandler lists the room's traffic by calendar month.
type monthlyStatsHandler struct {
	meta
	recorder *stats.Recorder
}

// NewMonthlyStatsHandler creates the !monthlystats command.
func NewMonthlyStatsHandler(recorder *stats.Recorder) Handler {
	return &monthlyStatsHandler{
		meta: meta{
			command:     "!monthlystats",
			description: "list this room's messages by month",
		},
		recorder: recorder,
	}
}

func (h *monthlyStatsHandler) CanHandle(text string) bool {
	return matchExact(text, "!monthlystats")
}

func (h *monthlyStatsHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	counts, err := h.recorder.MonthActivity(ctx, msg.RoomID, "")
	if err != nil {
		return replyOrErr(msg, err)
	}
	if sum(counts[:]) == 0 {
		return domain.TextReply(msg.RoomID, "No messages recorded in this room yet."), nil
	}
	return domain.TextReply(msg.RoomID, "Messages by month:\n"+monthList(counts)), nil
}

// myMonthlyStatsHandler lists the sender's own traffic by month.
type myMonthlyStatsHandler struct {
	meta
	recorder *stats.Recorder
}

// NewMyMonthlyStatsHandler creates the !mymonthlystats command.
func NewMyMonthlyStatsHandler(recorder *stats.Recorder) Handler {
	return &myMonthlyStatsHandler{
		meta: meta{
			command:     "!mymonthlystats",
			description: "list your messages by month",
		},
		recorder: recorder,
	}
}

func (h *myMonthlyStatsHandler) CanHandle(text string) bool {
	return matchExact(text, "!mymonthlystats")
}

func (h *myMonthlyStatsHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	counts, err := h.recorder.MonthActivity(ctx, msg.RoomID, msg.SenderHash)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if sum(counts[:]) == 0 {
		return domain.TextReply(msg.RoomID, "You have no recorded messages in this room yet."), nil
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"%s, your messages by month:\n%s", msg.SenderName, monthList(counts),
	)), nil
}

// rankingToggleHandler switches content tracking for the room. Sender
// counters are unaffected; only the repeated-content ranking stops.
type rankingToggleHandler struct {
	meta
	recorder *stats.Recorder
	admins   AdminChecker
	enable   bool
}

// NewRankingOnHandler creates the !rankingon command.
func NewRankingOnHandler(recorder *stats.Recorder, admins AdminChecker) Handler {
	return &rankingToggleHandler{
		meta: meta{
			command:     "!rankingon",
			description: "enable content ranking for this room (admins)",
			exempt:      true,
		},
		recorder: recorder,
		admins:   admins,
		enable:   true,
	}
}

// NewRankingOffHandler creates the !rankingoff command.
func NewRankingOffHandler(recorder *stats.Recorder, admins AdminChecker) Handler {
	return &rankingToggleHandler{
		meta: meta{
			command:     "!rankingoff",
			description: "disable content ranking for this room (admins)",
			exempt:      true,
		},
		recorder: recorder,
		admins:   admins,
		enable:   false,
	}
}

func (h *rankingToggleHandler) CanHandle(text string) bool {
	return matchExact(text, h.command)
}

func (h *rankingToggleHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	isAdmin, err := h.admins.IsAdmin(ctx, msg.SenderHash)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if !isAdmin {
		return replyOrErr(msg, apperrors.ErrNotAdmin())
	}

	current, err := h.recorder.ContentTracking(ctx, msg.RoomID)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if current == h.enable {
		if h.enable {
			return domain.TextReply(msg.RoomID, "Content ranking is already enabled for this room."), nil
		}
		return domain.TextReply(msg.RoomID, "Content ranking is already disabled for this room."), nil
	}

	if err := h.recorder.SetContentTracking(ctx, msg.RoomID, msg.RoomName, msg.SenderHash, h.enable); err != nil {
		return replyOrErr(msg, err)
	}
	if h.enable {
		return domain.TextReply(msg.RoomID, "Content ranking enabled. Message contents are now recorded for this room."), nil
	}
	return domain.TextReply(msg.RoomID, "Content ranking disabled. Message contents are no longer recorded for this room."), nil
}

// helpHandler enumerates every registered command.
type helpHandler struct {
	meta
	registry *Registry
}

// NewHelpHandler creates the !help command. Register it last so it can
// see the full command set.
func NewHelpHandler(registry *Registry) Handler {
	return &helpHandler{
		meta: meta{
			command:     "!help",
			description: "list available commands",
			exempt:      true,
		},
		registry: registry,
	}
}

func (h *helpHandler) CanHandle(text string) bool {
	return matchExact(text, "!help")
}

func (h *helpHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, handler := range h.registry.Handlers() {
		fmt.Fprintf(&b, "%s - %s\n", handler.Command(), handler.Description())
	}
	return domain.TextReply(msg.RoomID, strings.TrimRight(b.String(), "\n")), nil
}
