package approval_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relaybot.io/relaybot/internal/approval"
	apperrors "relaybot.io/relaybot/internal/pkg/errors"
	"relaybot.io/relaybot/internal/testutil"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestIssueGeneratesCode(t *testing.T) {
	repo := testutil.NewMemApprovalRepo()
	store := approval.NewStore(repo)

	code, err := store.Issue(context.Background(), approval.Code{
		Purpose:       approval.PurposeAdminPromotion,
		RequesterHash: "hash-a",
		RequesterName: "alice",
		RoomID:        "room-1",
	})
	require.NoError(t, err)
	require.Regexp(t, codePattern, code)
	require.Equal(t, 1, repo.Len())
}

func TestConsumeOnce(t *testing.T) {
	repo := testutil.NewMemApprovalRepo()
	store := approval.NewStore(repo)
	ctx := context.Background()

	value, err := store.Issue(ctx, approval.Code{
		Purpose:       approval.PurposeRoomQuota,
		RequesterHash: "hash-a",
		RoomID:        "room-1",
		DailyLimit:    5,
	})
	require.NoError(t, err)

	code, err := store.Consume(ctx, value, approval.PurposeRoomQuota)
	require.NoError(t, err)
	require.Equal(t, "hash-a", code.RequesterHash)
	require.Equal(t, 5, code.DailyLimit)

	// Second consume loses: same rejection as never-existed.
	_, err = store.Consume(ctx, value, approval.PurposeRoomQuota)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeApprovalRejected, appErr.Code)
}

func TestConsumeWrongPurpose(t *testing.T) {
	repo := testutil.NewMemApprovalRepo()
	store := approval.NewStore(repo)
	ctx := context.Background()

	value, err := store.Issue(ctx, approval.Code{
		Purpose:       approval.PurposeAdminPromotion,
		RequesterHash: "hash-a",
	})
	require.NoError(t, err)

	_, err = store.Consume(ctx, value, approval.PurposeRoomQuota)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeApprovalRejected, appErr.Code)

	// The admin promotion code is untouched and still consumable.
	code, err := store.Consume(ctx, value, approval.PurposeAdminPromotion)
	require.NoError(t, err)
	require.Equal(t, "hash-a", code.RequesterHash)
}

func TestConsumeExpired(t *testing.T) {
	repo := testutil.NewMemApprovalRepo()
	store := approval.NewStoreWithClock(repo, func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	ctx := context.Background()

	value, err := store.Issue(ctx, approval.Code{
		Purpose:       approval.PurposeAdminPromotion,
		RequesterHash: "hash-a",
	})
	require.NoError(t, err)

	late := approval.NewStoreWithClock(repo, func() time.Time {
		return time.Date(2026, 3, 1, 12, 10, 1, 0, time.UTC)
	})
	_, err = late.Consume(ctx, value, approval.PurposeAdminPromotion)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeApprovalRejected, appErr.Code)
}

func TestSweepDeletesOnlyExpired(t *testing.T) {
	repo := testutil.NewMemApprovalRepo()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := approval.NewStoreWithClock(repo, func() time.Time { return base })
	ctx := context.Background()

	_, err := store.Issue(ctx, approval.Code{Purpose: approval.PurposeAdminPromotion, RequesterHash: "a"})
	require.NoError(t, err)
	fresh, err := store.Issue(ctx, approval.Code{Purpose: approval.PurposeRoomQuota, RequesterHash: "b", DailyLimit: 3})
	require.NoError(t, err)

	// Advance past the first code's TTL, then issue a third fresh code.
	later := approval.NewStoreWithClock(repo, func() time.Time { return base.Add(approval.TTL + time.Minute) })
	_, err = later.Issue(ctx, approval.Code{Purpose: approval.PurposeAdminPromotion, RequesterHash: "c"})
	require.NoError(t, err)

	deleted, err := later.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)
	require.Equal(t, 1, repo.Len())

	// Sweep again: nothing left to delete.
	deleted, err = later.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)

	// The swept quota code is gone for good.
	_, err = later.Consume(ctx, fresh, approval.PurposeRoomQuota)
	require.Error(t, err)
}
