// Package admin tracks which identities hold admin privilege.
//
// The chief admin is a single fixed identity hash configured at startup.
// It is always treated as admin by direct comparison, is never stored as a
// row, and can never be promoted or removed. Everyone else gains admin via
// the approval-code workflow: anyone may request promotion, only the chief
// admin may approve it.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"relaybot.io/relaybot/internal/approval"
	apperrors "relaybot.io/relaybot/internal/pkg/errors"
	"relaybot.io/relaybot/internal/pkg/logger"
)

// Admin is one promoted identity.
type Admin struct {
	Hash     string
	Name     string
	RoomID   string
	RoomName string
	AddedBy  string
	AddedAt  time.Time
}

// Repository is the persistence contract for the admin set.
type Repository interface {
	// Insert adds an admin row. Returns apperrors.ErrAlreadyExists when the
	// hash is already present (unique index).
	Insert(ctx context.Context, a Admin) error

	Exists(ctx context.Context, hash string) (bool, error)

	// Delete removes the row for hash and reports whether one was removed.
	Delete(ctx context.Context, hash string) (bool, error)

	// List returns all admins sorted by room name, then display name.
	List(ctx context.Context) ([]Admin, error)
}

// Registry enforces the admin privilege hierarchy.
type Registry struct {
	repo      Repository
	codes     *approval.Store
	chiefHash string
	now       func() time.Time
}

// NewRegistry creates a Registry. chiefHash must be non-empty.
func NewRegistry(repo Repository, codes *approval.Store, chiefHash string) *Registry {
	return &Registry{
		repo:      repo,
		codes:     codes,
		chiefHash: chiefHash,
		now:       time.Now,
	}
}

// ChiefAdminHash returns the fixed chief admin identity hash.
func (r *Registry) ChiefAdminHash() string {
	return r.chiefHash
}

// IsAdmin reports whether the identity is the chief admin or a promoted
// admin.
func (r *Registry) IsAdmin(ctx context.Context, hash string) (bool, error) {
	if hash == r.chiefHash {
		return true, nil
	}
	ok, err := r.repo.Exists(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("check admin %s: %w", hash, err)
	}
	return ok, nil
}

// RequestPromotion issues an approval code for promoting the given
// identity. No authorization required: anyone may ask; only the chief
// admin can approve.
func (r *Registry) RequestPromotion(ctx context.Context, hash, name, roomID, roomName string) (string, error) {
	code, err := r.codes.Issue(ctx, approval.Code{
		Purpose:       approval.PurposeAdminPromotion,
		RequesterHash: hash,
		RequesterName: name,
		RoomID:        roomID,
		RoomName:      roomName,
	})
	if err != nil {
		return "", fmt.Errorf("request promotion for %s: %w", hash, err)
	}
	return code, nil
}

// ApprovePromotion consumes the code and inserts the subject as admin.
//
// Fails when the approver is not the chief admin, when the code is
// invalid/expired/used, when the subject is the chief admin itself, or
// when the subject is already an admin. A code consumed by a failing
// business check stays consumed.
func (r *Registry) ApprovePromotion(ctx context.Context, codeValue, approverHash string) error {
	if approverHash != r.chiefHash {
		return apperrors.ErrNotChiefAdmin()
	}

	code, err := r.codes.Consume(ctx, codeValue, approval.PurposeAdminPromotion)
	if err != nil {
		return err
	}

	if code.RequesterHash == r.chiefHash {
		return apperrors.ErrChiefImmutable()
	}

	err = r.repo.Insert(ctx, Admin{
		Hash:     code.RequesterHash,
		Name:     code.RequesterName,
		RoomID:   code.RoomID,
		RoomName: code.RoomName,
		AddedBy:  approverHash,
		AddedAt:  r.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return apperrors.Conflict(apperrors.CodeAlreadyAdmin, "identity is already an admin")
		}
		return fmt.Errorf("insert admin %s: %w", code.RequesterHash, err)
	}

	logger.Info("admin promoted",
		zap.String("hash", code.RequesterHash),
		zap.String("room_id", code.RoomID),
	)
	return nil
}

// Remove deletes an admin. Only the chief admin may remove, and the chief
// admin itself can never be removed.
func (r *Registry) Remove(ctx context.Context, hash, removerHash string) error {
	if removerHash != r.chiefHash {
		return apperrors.ErrNotChiefAdmin()
	}
	if hash == r.chiefHash {
		return apperrors.ErrChiefImmutable()
	}

	removed, err := r.repo.Delete(ctx, hash)
	if err != nil {
		return fmt.Errorf("remove admin %s: %w", hash, err)
	}
	if !removed {
		return apperrors.NotFound(apperrors.CodeAdminNotFound, "identity is not an admin")
	}

	logger.Info("admin removed", zap.String("hash", hash))
	return nil
}

// List returns all promoted admins sorted by room name then display name.
// The chief admin is never included.
func (r *Registry) List(ctx context.Context) ([]Admin, error) {
	admins, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}
