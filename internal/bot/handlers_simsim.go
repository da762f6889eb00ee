package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"relaybot.io/relaybot/internal/domain"
	apperrors "relaybot.io/relaybot/internal/pkg/errors"
	"relaybot.io/relaybot/internal/simsim"
)

// splitPair splits "prompt / response" on the first slash. ok is false
// when there is no slash.
func splitPair(text string) (prompt, response string, ok bool) {
	i := strings.Index(text, "/")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:]), true
}

// simAddHandler teaches the bot a prompt/response pair. Private chat
// only; group rooms would get noisy.
type simAddHandler struct {
	meta
	svc *simsim.Service
}

// NewSimAddHandler creates the !simadd command.
func NewSimAddHandler(svc *simsim.Service) Handler {
	return &simAddHandler{
		meta: meta{
			command:     "!simadd <prompt> / <reply>",
			description: "teach a reply (private chat only)",
		},
		svc: svc,
	}
}

func (h *simAddHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!simadd")
}

func (h *simAddHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	if msg.IsGroupChat {
		return domain.TextReply(msg.RoomID,
			"!simadd only works in a private chat, to keep group rooms quiet."), nil
	}

	rest := restAfter(msg.Content, "!simadd")
	prompt, response, ok := splitPair(rest)
	if rest == "" || !ok {
		return domain.TextReply(msg.RoomID,
			"Usage: !simadd <prompt> / <reply>\nExample: !simadd hello / hi there!"), nil
	}

	if err := h.svc.Learn(ctx, prompt, response, msg.SenderHash); err != nil {
		return replyOrErr(msg, err)
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"Learned!\nPrompt: %s\nReply: %s", prompt, response,
	)), nil
}

// simQueryHandler answers a prompt with one random learned reply. No
// command prefix: the bot is addressed by name.
type simQueryHandler struct {
	meta
	svc *simsim.Service
	rng *Rand
}

// NewSimQueryHandler creates the "simsim <prompt>" trigger.
func NewSimQueryHandler(svc *simsim.Service, rng *Rand) Handler {
	return &simQueryHandler{
		meta: meta{
			command:     "simsim <prompt>",
			description: "answer with a taught reply",
		},
		svc: svc,
		rng: rng,
	}
}

func (h *simQueryHandler) CanHandle(text string) bool {
	return matchPrefix(text, "simsim")
}

func (h *simQueryHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	prompt := restAfter(msg.Content, "simsim")
	if prompt == "" {
		return domain.TextReply(msg.RoomID, "Usage: simsim <prompt>\nExample: simsim hello"), nil
	}

	responses, err := h.svc.Responses(ctx, prompt)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if len(responses) == 0 {
		return domain.TextReply(msg.RoomID, fmt.Sprintf(
			"I have no reply for %q yet. Teach me in a private chat with !simadd <prompt> / <reply>.",
			prompt,
		)), nil
	}
	return domain.TextReply(msg.RoomID, responses[h.rng.Intn(len(responses))]), nil
}

// simDeleteHandler removes learned replies. Admin only; with a pair it
// removes that pair, with just a prompt it removes everything taught
// for it.
type simDeleteHandler struct {
	meta
	svc    *simsim.Service
	admins AdminChecker
}

// NewSimDeleteHandler creates the !simdel command.
func NewSimDeleteHandler(svc *simsim.Service, admins AdminChecker) Handler {
	return &simDeleteHandler{
		meta: meta{
			command:     "!simdel <prompt> [/ <reply>]",
			description: "delete taught replies (admins)",
			exempt:      true,
		},
		svc:    svc,
		admins: admins,
	}
}

func (h *simDeleteHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!simdel")
}

func (h *simDeleteHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	isAdmin, err := h.admins.IsAdmin(ctx, msg.SenderHash)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if !isAdmin {
		return replyOrErr(msg, apperrors.ErrNotAdmin())
	}

	rest := restAfter(msg.Content, "!simdel")
	if rest == "" {
		return domain.TextReply(msg.RoomID,
			"Usage:\n!simdel <prompt> - delete every reply for the prompt\n"+
				"!simdel <prompt> / <reply> - delete one reply"), nil
	}

	if prompt, response, ok := splitPair(rest); ok {
		deleted, err := h.svc.Forget(ctx, prompt, response)
		if err != nil {
			return replyOrErr(msg, err)
		}
		if !deleted {
			return domain.TextReply(msg.RoomID, fmt.Sprintf(
				"No such pair.\nPrompt: %s\nReply: %s", prompt, response,
			)), nil
		}
		return domain.TextReply(msg.RoomID, fmt.Sprintf(
			"Deleted.\nPrompt: %s\nReply: %s", prompt, response,
		)), nil
	}

	deleted, err := h.svc.ForgetAll(ctx, rest)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if deleted == 0 {
		return domain.TextReply(msg.RoomID, fmt.Sprintf("Nothing taught for %q.", rest)), nil
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"Deleted %d replies for %q.", deleted, rest,
	)), nil
}

// simCountHandler reports how many replies a prompt has.
type simCountHandler struct {
	meta
	svc *simsim.Service
}

// NewSimCountHandler creates the !simcount command.
func NewSimCountHandler(svc *simsim.Service) Handler {
	return &simCountHandler{
		meta: meta{
			command:     "!simcount <prompt>",
			description: "count taught replies for a prompt",
		},
		svc: svc,
	}
}

func (h *simCountHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!simcount")
}

func (h *simCountHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	prompt := restAfter(msg.Content, "!simcount")
	if prompt == "" {
		return domain.TextReply(msg.RoomID, "Usage: !simcount <prompt>"), nil
	}
	n, err := h.svc.Count(ctx, prompt)
	if err != nil {
		return replyOrErr(msg, err)
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf("%q has %d taught replies.", prompt, n)), nil
}

// simRankingHandler lists the prompts with the most taught replies.
type simRankingHandler struct {
	meta
	svc *simsim.Service
}

// NewSimRankingHandler creates the !simranking command.
func NewSimRankingHandler(svc *simsim.Service) Handler {
	return &simRankingHandler{
		meta: meta{
			command:     "!simranking [n]",
			description: "list the most-taught prompts",
		},
		svc: svc,
	}
}

func (h *simRankingHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!simranking")
}

func (h *simRankingHandler) Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error) {
	limit := 0
	if args := argsAfter(msg.Content, "!simranking"); len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}

	top, err := h.svc.TopPrompts(ctx, limit)
	if err != nil {
		return replyOrErr(msg, err)
	}
	if len(top) == 0 {
		return domain.TextReply(msg.RoomID, "Nothing has been taught yet."), nil
	}

	var b strings.Builder
	b.WriteString("Most taught prompts:\n")
	for i, pc := range top {
		fmt.Fprintf(&b, "%d. %s (%d replies)\n", i+1, pc.Prompt, pc.Count)
	}
	return domain.TextReply(msg.RoomID, strings.TrimRight(b.String(), "\n")), nil
}
