// Package bot contains the command registry, the message pipeline and
// the command handlers.
package bot

import (
	"context"
	"strings"

	"relaybot.io/relaybot/internal/domain"
)

// Handler is one chat command.
//
// CanHandle must be a pure predicate over the message text. Handle runs
// only when CanHandle accepted the text; business failures are rendered
// as reply text, only infrastructure failures surface as errors.
type Handler interface {
	// Command is the display form shown by help, e.g. "!dice <max>".
	Command() string

	// Description is the one-line help text.
	Description() string

	// QuotaExempt reports whether this command bypasses room quotas.
	// Admin and quota management commands must stay reachable in rooms
	// that have exhausted their limit.
	QuotaExempt() bool

	CanHandle(text string) bool
	Handle(ctx context.Context, msg *domain.Message) (domain.Reply, error)
}

// AdminChecker answers whether a sender hash is an admin. Handlers that
// gate on admin status but live outside the admin registry take this.
type AdminChecker interface {
	IsAdmin(ctx context.Context, hash string) (bool, error)
}

// meta carries the static half of a Handler.
type meta struct {
	command     string
	description string
	exempt      bool
}

func (m meta) Command() string     { return m.command }
func (m meta) Description() string { return m.description }
func (m meta) QuotaExempt() bool   { return m.exempt }

// matchExact reports whether text equals the command, case-insensitive,
// ignoring surrounding whitespace.
func matchExact(text, command string) bool {
	return strings.EqualFold(strings.TrimSpace(text), command)
}

// matchPrefix reports whether text starts with the command followed by
// whitespace, or equals it outright. Case-insensitive.
func matchPrefix(text, command string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < len(command) {
		return false
	}
	if !strings.EqualFold(trimmed[:len(command)], command) {
		return false
	}
	rest := trimmed[len(command):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// matchContains reports whether text contains the phrase anywhere,
// case-insensitive.
func matchContains(text, phrase string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}

// argsAfter returns the whitespace-split arguments following the command
// prefix. Empty slice when none.
func argsAfter(text, command string) []string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= len(command) {
		return nil
	}
	return strings.Fields(trimmed[len(command):])
}

// restAfter returns the raw trimmed remainder following the command
// prefix, preserving inner spacing. Empty string when none.
func restAfter(text, command string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= len(command) {
		return ""
	}
	return strings.TrimSpace(trimmed[len(command):])
}
