package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"relaybot.io/relaybot/internal/admin"
	"relaybot.io/relaybot/internal/approval"
	"relaybot.io/relaybot/internal/domain"
)

// adminAddHandler is dual-mode: bare "!adminadd" requests promotion and
// returns an approval code; "!adminadd <code>" lets the chief admin
// approve it.
type adminAddHandler struct {
	meta
	admins *admin.Registry
}

// NewAdminAddHandler creates the !adminadd command.
func NewAdminAddHandler(admins *admin.Registry) Handler {
	return &adminAddHandler{
		meta: meta{
			command:     "!adminadd [code]",
			description: "request admin promotion, or approve one with a code",
			exempt:      true,
		},
		admins: admins,
	}
}

func (h *adminAddHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!adminadd")
}

func (h *adminAddHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	args := argsAfter(msg.Content, "!adminadd")
	if len(args) == 0 {
		code, err := h.admins.RequestPromotion(ctx, msg.SenderHash, msg.SenderName, msg.RoomID, msg.RoomName)
		if err != nil {
			return replyOrErr(msg, err)
		}
		return domain.TextReply(msg.RoomID, fmt.Sprintf(
			"Promotion requested for %s. The chief admin can approve within %d minutes with: !adminadd %s",
			msg.SenderName, int(approval.TTL.Minutes()), code,
		)), nil
	}

	if err := h.admins.ApprovePromotion(ctx, strings.ToUpper(args[0]), msg.SenderHash); err != nil {
		return replyOrErr(msg, err)
	}
	return domain.TextReply(msg.RoomID, "Promotion approved. Welcome aboard."), nil
}

// adminRemoveHandler demotes an admin by identity hash. Chief only.
type adminRemoveHandler struct {
	meta
	admins *admin.Registry
}

// NewAdminRemoveHandler creates the !adminremove command.
func NewAdminRemoveHandler(admins *admin.Registry) Handler {
	return &adminRemoveHandler{
		meta: meta{
			command:     "!adminremove <hash>",
			description: "remove an admin by identity hash",
			exempt:      true,
		},
		admins: admins,
	}
}

func (h *adminRemoveHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!adminremove")
}

func (h *adminRemoveHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	args := argsAfter(msg.Content, "!adminremove")
	if len(args) != 1 {
		return domain.TextReply(msg.RoomID, "Usage: !adminremove <hash>"), nil
	}

	if err := h.admins.Remove(ctx, args[0], msg.SenderHash); err != nil {
		return replyOrErr(msg, err)
	}
	return domain.TextReply(msg.RoomID, "Admin removed."), nil
}

// adminListHandler lists promoted admins.
type adminListHandler struct {
	meta
	admins *admin.Registry
}

// NewAdminListHandler creates the !adminlist command.
func NewAdminListHandler(admins *admin.Registry) Handler {
	return &adminListHandler{
		meta: meta{
			command:     "!adminlist",
			description: "list current admins",
			exempt:      true,
		},
		admins: admins,
	}
}

func (h *adminListHandler) CanHandle(text string) bool {
	return matchExact(text, "!adminlist")
}

func (h *adminListHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	admins, err := h.admins.List(ctx)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if len(admins) == 0 {
		return domain.TextReply(msg.RoomID, "No admins have been promoted yet."), nil
	}

	var b strings.Builder
	b.WriteString("Admins:\n")
	for _, a := range admins {
		fmt.Fprintf(&b, "- %s (%s) since %s\n", a.Name, a.RoomName, a.AddedAt.Format(time.DateOnly))
	}
	return domain.TextReply(msg.RoomID, strings.TrimRight(b.String(), "\n")), nil
}
