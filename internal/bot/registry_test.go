package bot_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"relaybot.io/relaybot/internal/bot"
	"relaybot.io/relaybot/internal/domain"
)

// stubHandler is a minimal Handler for registry tests.
type stubHandler struct {
	name   string
	match  func(string) bool
	exempt bool
	reply  string
	err    error
}

func (s *stubHandler) Command() string { return s.name }

func (s *stubHandler) Description() string { return "stub" }

func (s *stubHandler) QuotaExempt() bool { return s.exempt }

func (s *stubHandler) CanHandle(text string) bool { return s.match(text) }

func (s *stubHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	if s.err != nil {
		return domain.Reply{}, s.err
	}
	return domain.TextReply(msg.RoomID, s.reply), nil
}

func exact(cmd string) func(string) bool {
	return func(text string) bool { return strings.EqualFold(strings.TrimSpace(text), cmd) }
}

func prefix(cmd string) func(string) bool {
	return func(text string) bool {
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), strings.ToLower(cmd))
	}
}

func TestFindReturnsNilWithoutMatch(t *testing.T) {
	reg := bot.NewRegistry()
	reg.Register(&stubHandler{name: "!a", match: exact("!a")})

	require.Nil(t, reg.Find("hello"))
	require.NotNil(t, reg.Find("!a"))
	require.NotNil(t, reg.Find("  !A  "))
}

func TestFindFirstMatchWins(t *testing.T) {
	first := &stubHandler{name: "!a", match: prefix("!a")}
	second := &stubHandler{name: "!ab", match: exact("!ab")}

	// A greedy prefix registered first shadows the exact command.
	reg := bot.NewRegistry()
	reg.Register(first, second)
	require.Same(t, bot.Handler(first), reg.Find("!ab"))

	// Registering the exact command first resolves the overlap.
	reg = bot.NewRegistry()
	reg.Register(second, first)
	require.Same(t, bot.Handler(second), reg.Find("!ab"))
	require.Same(t, bot.Handler(first), reg.Find("!a something"))
}

func TestHandlersPreservesOrder(t *testing.T) {
	a := &stubHandler{name: "!a", match: exact("!a")}
	b := &stubHandler{name: "!b", match: exact("!b")}
	c := &stubHandler{name: "!c", match: exact("!c")}

	reg := bot.NewRegistry()
	reg.Register(a, b)
	reg.Register(c)

	handlers := reg.Handlers()
	require.Len(t, handlers, 3)
	require.Equal(t, "!a", handlers[0].Command())
	require.Equal(t, "!b", handlers[1].Command())
	require.Equal(t, "!c", handlers[2].Command())
}
