// Package stats accumulates per-room chat statistics.
//
// Two aggregates are maintained: a per-sender message count partitioned
// by UTC day, and a per-content repetition count. Blacklisted content
// (commands, media placeholders) is skipped at record time, and a
// periodic cleanup prunes rows that predate a blacklist change. Rooms
// can opt out of content tracking; sender counts are always kept.
package stats

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"relaybot.io/relaybot/internal/domain"
	"relaybot.io/relaybot/internal/pkg/logger"
)

// SenderCount is one row of the per-room sender ranking.
type SenderCount struct {
	SenderHash string
	SenderName string
	Count      int
}

// ContentCount is one row of the per-room repeated-content ranking.
type ContentCount struct {
	Content string
	Count   int
}

// RoomTotal summarizes one room's traffic.
type RoomTotal struct {
	RoomID       string
	RoomName     string
	MessageCount int
	SenderCount  int
}

// Rank is a sender's position within a room, 1-based. Count is the
// sender's own message count.
type Rank struct {
	Position int
	Of       int
	Count    int
}

// RoomSetting controls what gets recorded for one room. Content
// tracking is on unless an admin switched it off.
type RoomSetting struct {
	RoomID         string
	RoomName       string
	ContentEnabled bool
	SetBy          string
	SetAt          time.Time
}

// DayKey is the partition key for sender counters, a UTC calendar date.
// Quota counters use the same convention.
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// Repository is the persistence contract for chat statistics.
type Repository interface {
	// RecordMessage bumps the sender counter for the given day, and the
	// content counter when contentEnabled holds.
	RecordMessage(ctx context.Context, msg *domain.Message, day string, contentEnabled bool) error

	// TopSenders returns up to limit senders of the room by all-time
	// message count, descending.
	TopSenders(ctx context.Context, roomID string, limit int) ([]SenderCount, error)

	// SenderRank returns the sender's rank in the room. Position zero
	// means the sender has no recorded messages.
	SenderRank(ctx context.Context, roomID, senderHash string) (Rank, error)

	// WeekdayActivity sums the room's counters per weekday, Sunday
	// first. An empty senderHash covers the whole room.
	WeekdayActivity(ctx context.Context, roomID, senderHash string) ([7]int, error)

	// MonthActivity sums the room's counters per calendar month,
	// January first. An empty senderHash covers the whole room.
	MonthActivity(ctx context.Context, roomID, senderHash string) ([12]int, error)

	// TopContents returns up to limit most repeated contents of the room.
	TopContents(ctx context.Context, roomID string, limit int) ([]ContentCount, error)

	// RoomTotals returns per-room traffic summaries across all rooms.
	RoomTotals(ctx context.Context) ([]RoomTotal, error)

	// ContentEnabled reports whether the room records message contents.
	// Rooms without a stored setting default to enabled.
	ContentEnabled(ctx context.Context, roomID string) (bool, error)

	// SetContentEnabled stores the room's content tracking setting.
	SetContentEnabled(ctx context.Context, setting RoomSetting) error

	// DeleteBlacklisted removes content rows matching the given patterns
	// or prefixes and reports how many went.
	DeleteBlacklisted(ctx context.Context, prefixes, patterns []string) (int64, error)
}

// Recorder is the statistics front door used by the message pipeline.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a Recorder.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordMessage stores one message into the aggregates. Blacklisted
// content is silently skipped; rooms that disabled content tracking
// still get their sender counter bumped.
func (r *Recorder) RecordMessage(ctx context.Context, msg *domain.Message) error {
	if IsBlacklisted(msg.Content) {
		return nil
	}
	contentEnabled, err := r.repo.ContentEnabled(ctx, msg.RoomID)
	if err != nil {
		return fmt.Errorf("content setting for room %s: %w", msg.RoomID, err)
	}
	if err := r.repo.RecordMessage(ctx, msg, DayKey(msg.Time), contentEnabled); err != nil {
		return fmt.Errorf("record message in room %s: %w", msg.RoomID, err)
	}
	return nil
}

// TopSenders returns the room's sender ranking, most talkative first.
func (r *Recorder) TopSenders(ctx context.Context, roomID string, limit int) ([]SenderCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.repo.TopSenders(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("top senders for room %s: %w", roomID, err)
	}
	return rows, nil
}

// SenderRank returns the sender's position in the room ranking.
func (r *Recorder) SenderRank(ctx context.Context, roomID, senderHash string) (Rank, error) {
	rank, err := r.repo.SenderRank(ctx, roomID, senderHash)
	if err != nil {
		return Rank{}, fmt.Errorf("sender rank for room %s: %w", roomID, err)
	}
	return rank, nil
}

// WeekdayActivity returns the room's message counts per weekday,
// Sunday first. Pass a sender hash to scope it to one sender.
func (r *Recorder) WeekdayActivity(ctx context.Context, roomID, senderHash string) ([7]int, error) {
	counts, err := r.repo.WeekdayActivity(ctx, roomID, senderHash)
	if err != nil {
		return [7]int{}, fmt.Errorf("weekday activity for room %s: %w", roomID, err)
	}
	return counts, nil
}

// MonthActivity returns the room's message counts per calendar month,
// January first. Pass a sender hash to scope it to one sender.
func (r *Recorder) MonthActivity(ctx context.Context, roomID, senderHash string) ([12]int, error) {
	counts, err := r.repo.MonthActivity(ctx, roomID, senderHash)
	if err != nil {
		return [12]int{}, fmt.Errorf("month activity for room %s: %w", roomID, err)
	}
	return counts, nil
}

// ContentTracking reports whether the room records message contents.
func (r *Recorder) ContentTracking(ctx context.Context, roomID string) (bool, error) {
	enabled, err := r.repo.ContentEnabled(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("content setting for room %s: %w", roomID, err)
	}
	return enabled, nil
}

// SetContentTracking switches content recording for the room.
func (r *Recorder) SetContentTracking(ctx context.Context, roomID, roomName, setBy string, enabled bool) error {
	err := r.repo.SetContentEnabled(ctx, RoomSetting{
		RoomID:         roomID,
		RoomName:       roomName,
		ContentEnabled: enabled,
		SetBy:          setBy,
		SetAt:          time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("set content tracking for room %s: %w", roomID, err)
	}
	logger.Info("content tracking changed",
		zap.String("room_id", roomID),
		zap.Bool("enabled", enabled),
		zap.String("set_by", setBy),
	)
	return nil
}

// TopContents returns the room's most repeated message contents.
func (r *Recorder) TopContents(ctx context.Context, roomID string, limit int) ([]ContentCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.repo.TopContents(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("top contents for room %s: %w", roomID, err)
	}
	return rows, nil
}

// RoomTotals returns traffic summaries for every room seen so far.
func (r *Recorder) RoomTotals(ctx context.Context) ([]RoomTotal, error) {
	rows, err := r.repo.RoomTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("room totals: %w", err)
	}
	return rows, nil
}

// CleanupBlacklisted prunes stored content rows that the current
// blacklist would reject. Run at startup and on a daily schedule so a
// blacklist change retroactively cleans the aggregates.
func (r *Recorder) CleanupBlacklisted(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := r.repo.DeleteBlacklisted(ctx, []string{"!", "/"}, blacklistPatterns)
	if err != nil {
		return 0, fmt.Errorf("cleanup blacklisted contents: %w", err)
	}
	if deleted > 0 {
		logger.Info("blacklisted contents pruned",
			zap.Int64("deleted", deleted),
			zap.Duration("took", time.Since(start)),
		)
	}
	return deleted, nil
}
