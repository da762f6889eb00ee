// Package approval implements the short-lived approval code store.
//
// A code binds a pending privileged action (admin promotion, room quota
// change) to the identity that requested it. A second party must approve
// within the TTL; each code is consumable exactly once.
package approval

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	apperrors "relaybot.io/relaybot/internal/pkg/errors"
)

// Purposes discriminate what a consumed code authorizes.
const (
	PurposeAdminPromotion = "admin_promotion"
	PurposeRoomQuota      = "room_quota"
)

const (
	// TTL is the validity window of an issued code.
	TTL = 600 * time.Second

	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Code is one pending approval.
type Code struct {
	Code          string
	Purpose       string
	RequesterHash string
	RequesterName string
	RoomID        string
	RoomName      string

	// DailyLimit is the payload for PurposeRoomQuota; zero otherwise.
	DailyLimit int

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Repository is the persistence contract for approval codes.
type Repository interface {
	Insert(ctx context.Context, code Code) error

	// ConsumeValid atomically finds and deletes the non-expired code
	// matching (value, purpose). Returns nil when no such code exists.
	// Concurrent calls for the same code yield at most one non-nil result.
	ConsumeValid(ctx context.Context, value, purpose string, now time.Time) (*Code, error)

	// DeleteExpired removes every code with expiresAt <= now and reports
	// how many rows went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store issues, consumes and sweeps approval codes.
type Store struct {
	repo Repository
	now  func() time.Time
}

// NewStore creates a Store backed by the given repository.
func NewStore(repo Repository) *Store {
	return NewStoreWithClock(repo, time.Now)
}

// NewStoreWithClock creates a Store with an injected clock. Tests use
// this to pin issuance and expiry times.
func NewStoreWithClock(repo Repository, now func() time.Time) *Store {
	return &Store{repo: repo, now: now}
}

// Issue generates a fresh code for the request and persists it.
// The Code, CreatedAt and ExpiresAt fields of the input are overwritten.
func (s *Store) Issue(ctx context.Context, req Code) (string, error) {
	value, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate approval code: %w", err)
	}

	now := s.now().UTC()
	req.Code = value
	req.CreatedAt = now
	req.ExpiresAt = now.Add(TTL)

	if err := s.repo.Insert(ctx, req); err != nil {
		return "", fmt.Errorf("persist approval code: %w", err)
	}
	return value, nil
}

// Consume atomically claims the code for the given purpose.
// Not-found, expired and already-consumed all collapse into the same
// rejection; callers cannot and must not distinguish them.
func (s *Store) Consume(ctx context.Context, value, purpose string) (*Code, error) {
	code, err := s.repo.ConsumeValid(ctx, value, purpose, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("consume approval code: %w", err)
	}
	if code == nil {
		return nil, apperrors.ErrApprovalRejected()
	}
	return code, nil
}

// Sweep deletes all expired codes and returns how many were removed.
// Safe to race with Consume: a code claimed moments earlier is simply no
// longer there.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep approval codes: %w", err)
	}
	return deleted, nil
}

// generateCode draws codeLength characters uniformly from codeAlphabet.
// No uniqueness check against live codes: with 36^6 combinations and a
// 10 minute TTL, collisions are treated as negligible; the unique index
// turns an actual collision into an insert error.
func generateCode() (string, error) {
	return generateCodeFrom(rand.Reader)
}

// generateCodeFrom maps random bytes onto the alphabet with rejection
// sampling: bytes at or above the largest multiple of the alphabet size
// are discarded, so every character is equally likely.
func generateCodeFrom(r io.Reader) (string, error) {
	const limit = 256 - 256%len(codeAlphabet)

	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				return string(out), nil
			}
		}
	}
}
