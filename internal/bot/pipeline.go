package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"relaybot.io/relaybot/internal/domain"
	apperrors "relaybot.io/relaybot/internal/pkg/errors"
	"relaybot.io/relaybot/internal/pkg/logger"
	"relaybot.io/relaybot/internal/quota"
	"relaybot.io/relaybot/internal/stats"
)

// Pipeline processes one inbound message end to end: record statistics,
// dispatch to a command, enforce the room quota, run the handler.
type Pipeline struct {
	registry *Registry
	recorder *stats.Recorder
	quotas   *quota.Ledger
}

// NewPipeline creates a Pipeline.
func NewPipeline(registry *Registry, recorder *stats.Recorder, quotas *quota.Ledger) *Pipeline {
	return &Pipeline{
		registry: registry,
		recorder: recorder,
		quotas:   quotas,
	}
}

// HandleMessage runs the full pipeline for one message and returns the
// reply. The zero reply means "stay silent". Infrastructure failures are
// logged and produce a generic failure reply; this method never panics
// past the handler boundary.
func (p *Pipeline) HandleMessage(ctx context.Context, msg *domain.Message) domain.Reply {
	// Statistics are best effort: a stats outage must not mute commands.
	if err := p.recorder.RecordMessage(ctx, msg); err != nil {
		logger.Error("record message failed",
			zap.String("room_id", msg.RoomID),
			zap.Error(err),
		)
	}

	h := p.registry.Find(msg.Content)
	if h == nil {
		return domain.Reply{}
	}

	log := logger.With(
		zap.String("room_id", msg.RoomID),
		zap.String("sender_hash", msg.SenderHash),
		zap.String("command", h.Command()),
	)

	if !h.QuotaExempt() {
		allowed, err := p.quotas.CheckLimit(ctx, msg.RoomID, msg.SenderHash)
		if err != nil {
			log.Error("quota check failed", zap.Error(err))
			return failureReply(msg)
		}
		if !allowed {
			u, err := p.quotas.Usage(ctx, msg.RoomID, msg.SenderHash)
			if err != nil {
				log.Error("quota usage lookup failed", zap.Error(err))
				return failureReply(msg)
			}
			return domain.TextReply(msg.RoomID, fmt.Sprintf(
				"You've reached this room's daily limit (%d/%d). Try again tomorrow.",
				u.UsedToday, u.DailyLimit,
			))
		}
		if err := p.quotas.Increment(ctx, msg.RoomID, msg.SenderHash); err != nil {
			log.Error("quota increment failed", zap.Error(err))
			return failureReply(msg)
		}
	}

	reply, err := h.Handle(ctx, msg)
	if err != nil {
		log.Error("command failed", zap.Error(err))
		return failureReply(msg)
	}
	return reply
}

func failureReply(msg *domain.Message) domain.Reply {
	return domain.TextReply(msg.RoomID, "Something went wrong. Please try again later.")
}

// replyOrErr renders business AppErrors as user-facing reply text and
// passes everything else through as an infrastructure error.
func replyOrErr(msg *domain.Message, err error) (domain.Reply, error) {
	if appErr, ok := apperrors.IsAppError(err); ok {
		return domain.TextReply(msg.RoomID, userText(appErr)), nil
	}
	return domain.Reply{}, err
}

func userText(e *apperrors.AppError) string {
	switch e.Code {
	case apperrors.CodeApprovalRejected:
		return "That approval code is invalid, expired, or already used."
	case apperrors.CodeNotChiefAdmin:
		return "Only the chief admin can do that."
	case apperrors.CodeNotAdmin:
		return "Only admins can do that."
	case apperrors.CodeChiefImmutable:
		return "The chief admin cannot be changed."
	case apperrors.CodeAlreadyAdmin:
		return "That user is already an admin."
	case apperrors.CodeAdminNotFound:
		return "That user is not an admin."
	case apperrors.CodeInvalidLimit:
		return "The daily limit must be a positive number."
	case apperrors.CodeNoRoomQuota:
		return "This room has no daily limit."
	case apperrors.CodeEmptySimSimPair:
		return "The prompt and the reply must both be non-empty."
	default:
		return e.Message
	}
}
