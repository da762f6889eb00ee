// Package quota enforces per-room daily message quotas.
//
// A room without a quota row is unlimited. Once a quota is set, every
// non-admin sender in that room may trigger at most DailyLimit handled
// commands per UTC day. Admins are exempt from both the check and the
// count.
package quota

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"relaybot.io/relaybot/internal/approval"
	apperrors "relaybot.io/relaybot/internal/pkg/errors"
	"relaybot.io/relaybot/internal/pkg/logger"
)

// RoomQuota is the configured daily limit for one room.
type RoomQuota struct {
	RoomID     string
	RoomName   string
	DailyLimit int
	SetBy      string
	SetAt      time.Time
}

// Usage describes one sender's standing against the room quota.
type Usage struct {
	HasLimit   bool
	DailyLimit int
	UsedToday  int
}

// Repository is the persistence contract for quotas and usage counters.
type Repository interface {
	// UpsertQuota inserts or replaces the quota row for q.RoomID.
	UpsertQuota(ctx context.Context, q RoomQuota) error

	// GetQuota returns nil when the room has no quota.
	GetQuota(ctx context.Context, roomID string) (*RoomQuota, error)

	// DeleteQuota removes the quota row and reports whether one existed.
	DeleteQuota(ctx context.Context, roomID string) (bool, error)

	// IncrementUsage atomically bumps the (room, sender, day) counter,
	// creating it at 1 when absent.
	IncrementUsage(ctx context.Context, roomID, senderHash, day string, at time.Time) error

	// GetUsage returns the counter value, zero when absent.
	GetUsage(ctx context.Context, roomID, senderHash, day string) (int, error)
}

// AdminChecker answers whether an identity holds admin privilege.
type AdminChecker interface {
	IsAdmin(ctx context.Context, hash string) (bool, error)
}

// Ledger ties quota configuration, usage counting and the approval
// workflow together.
type Ledger struct {
	repo   Repository
	admins AdminChecker
	codes  *approval.Store
	now    func() time.Time
}

// NewLedger creates a Ledger.
func NewLedger(repo Repository, admins AdminChecker, codes *approval.Store) *Ledger {
	return NewLedgerWithClock(repo, admins, codes, time.Now)
}

// NewLedgerWithClock creates a Ledger with an injected clock. Tests use
// this to pin the daily window.
func NewLedgerWithClock(repo Repository, admins AdminChecker, codes *approval.Store, now func() time.Time) *Ledger {
	return &Ledger{
		repo:   repo,
		admins: admins,
		codes:  codes,
		now:    now,
	}
}

// RequestLimit issues an approval code proposing dailyLimit for the room.
// Any admin may later approve it. Rejects non-positive limits up front so
// no code is burned on a proposal that could never apply.
func (l *Ledger) RequestLimit(ctx context.Context, roomID, roomName, requesterHash, requesterName string, dailyLimit int) (string, error) {
	if dailyLimit <= 0 {
		return "", apperrors.ErrInvalidLimit(dailyLimit)
	}

	code, err := l.codes.Issue(ctx, approval.Code{
		Purpose:       approval.PurposeRoomQuota,
		RequesterHash: requesterHash,
		RequesterName: requesterName,
		RoomID:        roomID,
		RoomName:      roomName,
		DailyLimit:    dailyLimit,
	})
	if err != nil {
		return "", fmt.Errorf("request limit for room %s: %w", roomID, err)
	}
	return code, nil
}

// ApproveLimit consumes the code and applies its proposed limit. Any
// admin may approve. A code consumed by a failing apply stays consumed.
func (l *Ledger) ApproveLimit(ctx context.Context, codeValue, approverHash string) (*RoomQuota, error) {
	isAdmin, err := l.admins.IsAdmin(ctx, approverHash)
	if err != nil {
		return nil, fmt.Errorf("approve limit: %w", err)
	}
	if !isAdmin {
		return nil, apperrors.ErrNotAdmin()
	}

	code, err := l.codes.Consume(ctx, codeValue, approval.PurposeRoomQuota)
	if err != nil {
		return nil, err
	}

	q, err := l.SetLimit(ctx, code.RoomID, code.RoomName, code.DailyLimit, approverHash)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// SetLimit inserts or replaces the room quota. Rejects non-positive
// limits.
func (l *Ledger) SetLimit(ctx context.Context, roomID, roomName string, dailyLimit int, setBy string) (*RoomQuota, error) {
	if dailyLimit <= 0 {
		return nil, apperrors.ErrInvalidLimit(dailyLimit)
	}

	q := RoomQuota{
		RoomID:     roomID,
		RoomName:   roomName,
		DailyLimit: dailyLimit,
		SetBy:      setBy,
		SetAt:      l.now().UTC(),
	}
	if err := l.repo.UpsertQuota(ctx, q); err != nil {
		return nil, fmt.Errorf("set limit for room %s: %w", roomID, err)
	}

	logger.Info("room quota set",
		zap.String("room_id", roomID),
		zap.Int("daily_limit", dailyLimit),
	)
	return &q, nil
}

// RemoveLimit deletes the room quota, returning it to unlimited. Admin
// only.
func (l *Ledger) RemoveLimit(ctx context.Context, roomID, removerHash string) error {
	isAdmin, err := l.admins.IsAdmin(ctx, removerHash)
	if err != nil {
		return fmt.Errorf("remove limit: %w", err)
	}
	if !isAdmin {
		return apperrors.ErrNotAdmin()
	}

	removed, err := l.repo.DeleteQuota(ctx, roomID)
	if err != nil {
		return fmt.Errorf("remove limit for room %s: %w", roomID, err)
	}
	if !removed {
		return apperrors.NotFound(apperrors.CodeNoRoomQuota, "room has no daily limit")
	}

	logger.Info("room quota removed", zap.String("room_id", roomID))
	return nil
}

// CheckLimit reports whether the sender may trigger one more handled
// command right now. Admins and unlimited rooms always pass.
func (l *Ledger) CheckLimit(ctx context.Context, roomID, senderHash string) (bool, error) {
	isAdmin, err := l.admins.IsAdmin(ctx, senderHash)
	if err != nil {
		return false, fmt.Errorf("check limit: %w", err)
	}
	if isAdmin {
		return true, nil
	}

	q, err := l.repo.GetQuota(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("check limit for room %s: %w", roomID, err)
	}
	if q == nil {
		return true, nil
	}

	used, err := l.repo.GetUsage(ctx, roomID, senderHash, dayKey(l.now()))
	if err != nil {
		return false, fmt.Errorf("check limit for room %s: %w", roomID, err)
	}
	return used < q.DailyLimit, nil
}

// Increment counts one handled command against the sender. Admin usage
// is never counted, matching the exemption in CheckLimit.
func (l *Ledger) Increment(ctx context.Context, roomID, senderHash string) error {
	isAdmin, err := l.admins.IsAdmin(ctx, senderHash)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if isAdmin {
		return nil
	}

	now := l.now().UTC()
	if err := l.repo.IncrementUsage(ctx, roomID, senderHash, dayKey(now), now); err != nil {
		return fmt.Errorf("increment usage for room %s: %w", roomID, err)
	}
	return nil
}

// Usage returns the sender's standing against the room quota for today.
func (l *Ledger) Usage(ctx context.Context, roomID, senderHash string) (Usage, error) {
	q, err := l.repo.GetQuota(ctx, roomID)
	if err != nil {
		return Usage{}, fmt.Errorf("usage for room %s: %w", roomID, err)
	}
	if q == nil {
		return Usage{}, nil
	}

	used, err := l.repo.GetUsage(ctx, roomID, senderHash, dayKey(l.now()))
	if err != nil {
		return Usage{}, fmt.Errorf("usage for room %s: %w", roomID, err)
	}
	return Usage{HasLimit: true, DailyLimit: q.DailyLimit, UsedToday: used}, nil
}

// dayKey renders the UTC calendar day a timestamp falls on. All quota
// accounting shares this key so the daily window resets at UTC midnight
// everywhere at once.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
