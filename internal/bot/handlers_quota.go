package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"relaybot.io/relaybot/internal/approval"
	"relaybot.io/relaybot/internal/domain"
	"relaybot.io/relaybot/internal/quota"
)

// limitSetHandler proposes a daily limit for the current room. The
// proposal becomes active once any admin approves the returned code.
type limitSetHandler struct {
	meta
	quotas *quota.Ledger
}

// NewLimitSetHandler creates the !limitset command.
func NewLimitSetHandler(quotas *quota.Ledger) Handler {
	return &limitSetHandler{
		meta: meta{
			command:     "!limitset <n>",
			description: "propose a daily command limit for this room",
			exempt:      true,
		},
		quotas: quotas,
	}
}

func (h *limitSetHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!limitset")
}

func (h *limitSetHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	args := argsAfter(msg.Content, "!limitset")
	if len(args) != 1 {
		return domain.TextReply(msg.RoomID, "Usage: !limitset <n>"), nil
	}
	limit, err := strconv.Atoi(args[0])
	if err != nil {
		return domain.TextReply(msg.RoomID, "The daily limit must be a positive number."), nil
	}

	code, err := h.quotas.RequestLimit(ctx, msg.RoomID, msg.RoomName, msg.SenderHash, msg.SenderName, limit)
	if err != nil {
		return replyOrErr(msg, err)
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"Proposed a daily limit of %d for this room. An admin can approve within %d minutes with: !limitapprove %s",
		limit, int(approval.TTL.Minutes()), code,
	)), nil
}

// limitApproveHandler consumes a quota approval code. Admin only.
type limitApproveHandler struct {
	meta
	quotas *quota.Ledger
}

// NewLimitApproveHandler creates the !limitapprove command.
func NewLimitApproveHandler(quotas *quota.Ledger) Handler {
	return &limitApproveHandler{
		meta: meta{
			command:     "!limitapprove <code>",
			description: "approve a proposed daily limit",
			exempt:      true,
		},
		quotas: quotas,
	}
}

func (h *limitApproveHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!limitapprove")
}

func (h *limitApproveHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	args := argsAfter(msg.Content, "!limitapprove")
	if len(args) != 1 {
		return domain.TextReply(msg.RoomID, "Usage: !limitapprove <code>"), nil
	}

	q, err := h.quotas.ApproveLimit(ctx, strings.ToUpper(args[0]), msg.SenderHash)
	if err != nil {
		return replyOrErr(msg, err)
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"Daily limit for %s is now %d commands per person.", q.RoomName, q.DailyLimit,
	)), nil
}

// limitRemoveHandler returns the room to unlimited. Admin only.
type limitRemoveHandler struct {
	meta
	quotas *quota.Ledger
}

// NewLimitRemoveHandler creates the !limitremove command.
func NewLimitRemoveHandler(quotas *quota.Ledger) Handler {
	return &limitRemoveHandler{
		meta: meta{
			command:     "!limitremove",
			description: "remove this room's daily limit",
			exempt:      true,
		},
		quotas: quotas,
	}
}

func (h *limitRemoveHandler) CanHandle(text string) bool {
	return matchExact(text, "!limitremove")
}

func (h *limitRemoveHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	if err := h.quotas.RemoveLimit(ctx, msg.RoomID, msg.SenderHash); err != nil {
		return replyOrErr(msg, err)
	}
	return domain.TextReply(msg.RoomID, "This room no longer has a daily limit."), nil
}

// limitStatusHandler shows the sender's standing against the room quota.
type limitStatusHandler struct {
	meta
	quotas *quota.Ledger
}

// NewLimitStatusHandler creates the !limitstatus command.
func NewLimitStatusHandler(quotas *quota.Ledger) Handler {
	return &limitStatusHandler{
		meta: meta{
			command:     "!limitstatus",
			description: "show your usage against this room's daily limit",
			exempt:      true,
		},
		quotas: quotas,
	}
}

func (h *limitStatusHandler) CanHandle(text string) bool {
	return matchExact(text, "!limitstatus")
}

func (h *limitStatusHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	u, err := h.quotas.Usage(ctx, msg.RoomID, msg.SenderHash)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if !u.HasLimit {
		return domain.TextReply(msg.RoomID, "This room has no daily limit."), nil
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"You've used %d of %d commands today.", u.UsedToday, u.DailyLimit,
	)), nil
}
