package bot

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"

	"relaybot.io/relaybot/internal/domain"
	"relaybot.io/relaybot/internal/gacha"
)

// Rand is a mutex-guarded random source. The fun commands share one
// instance so concurrent pipeline tasks never race on the underlying
// generator.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand creates a Rand from the given source.
func NewRand(src rand.Source) *Rand {
	return &Rand{r: rand.New(src)}
}

// Intn returns a uniform int in [0, n).
func (g *Rand) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Intn(n)
}

// Perm returns a random permutation of [0, n).
func (g *Rand) Perm(n int) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Perm(n)
}

// diceHandler rolls a die with a caller-chosen number of faces.
type diceHandler struct {
	meta
	rng *Rand
}

// NewDiceHandler creates the !dice command.
func NewDiceHandler(r *Rand) Handler {
	return &diceHandler{
		meta: meta{
			command:     "!dice [max]",
			description: "roll a number between 1 and max (default 100)",
		},
		rng: r,
	}
}

func (h *diceHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!dice")
}

func (h *diceHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	max := 100
	if args := argsAfter(msg.Content, "!dice"); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 2 {
			return domain.TextReply(msg.RoomID, "Usage: !dice <max>, where max is at least 2."), nil
		}
		max = n
	}
	roll := h.rng.Intn(max) + 1
	return domain.TextReply(msg.RoomID, fmt.Sprintf("%s rolled %d (1-%d).", msg.SenderName, roll, max)), nil
}

// lottoHandler draws six unique numbers from 1 to 45.
type lottoHandler struct {
	meta
	rng *Rand
}

// NewLottoHandler creates the !lotto command.
func NewLottoHandler(r *Rand) Handler {
	return &lottoHandler{
		meta: meta{
			command:     "!lotto",
			description: "draw six lottery numbers",
		},
		rng: r,
	}
}

func (h *lottoHandler) CanHandle(text string) bool {
	return matchExact(text, "!lotto")
}

func (h *lottoHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	picks := h.rng.Perm(45)[:6]
	for i := range picks {
		picks[i]++
	}
	sort.Ints(picks)

	parts := make([]string, len(picks))
	for i, n := range picks {
		parts[i] = strconv.Itoa(n)
	}
	return domain.TextReply(msg.RoomID, "Your numbers: "+strings.Join(parts, ", ")), nil
}

// choiceHandler picks one of the given options.
type choiceHandler struct {
	meta
	rng *Rand
}

// NewChoiceHandler creates the !choice command.
func NewChoiceHandler(r *Rand) Handler {
	return &choiceHandler{
		meta: meta{
			command:     "!choice <a> <b> ...",
			description: "pick one of the given options",
		},
		rng: r,
	}
}

func (h *choiceHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!choice")
}

func (h *choiceHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	args := argsAfter(msg.Content, "!choice")
	if len(args) < 2 {
		return domain.TextReply(msg.RoomID, "Give me at least two options, e.g. !choice pizza pasta"), nil
	}
	return domain.TextReply(msg.RoomID, "I pick: "+args[h.rng.Intn(len(args))]), nil
}

// oddEvenHandler plays odd-or-even against the sender's guess.
type oddEvenHandler struct {
	meta
	rng *Rand
}

// NewOddEvenHandler creates the !odd and !even commands.
func NewOddEvenHandler(r *Rand) Handler {
	return &oddEvenHandler{
		meta: meta{
			command:     "!odd / !even",
			description: "guess the parity of a secret number",
		},
		rng: r,
	}
}

func (h *oddEvenHandler) CanHandle(text string) bool {
	return matchExact(text, "!odd") || matchExact(text, "!even")
}

func (h *oddEvenHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	guessOdd := matchExact(msg.Content, "!odd")
	n := h.rng.Intn(100) + 1
	parity := "even"
	if n%2 == 1 {
		parity = "odd"
	}
	verdict := "You lose."
	if (n%2 == 1) == guessOdd {
		verdict = "You win!"
	}
	return domain.TextReply(msg.RoomID, fmt.Sprintf("The number was %d (%s). %s", n, parity, verdict)), nil
}

var conchAnswers = []string{
	"Yes.",
	"No.",
	"Maybe someday.",
	"Ask again.",
	"I wouldn't count on it.",
	"Absolutely.",
	"Neither.",
}

// conchHandler answers any message mentioning the magic conch.
type conchHandler struct {
	meta
	rng *Rand
}

// NewConchHandler creates the magic conch responder.
func NewConchHandler(r *Rand) Handler {
	return &conchHandler{
		meta: meta{
			command:     "magic conch",
			description: "ask the magic conch anything",
		},
		rng: r,
	}
}

func (h *conchHandler) CanHandle(text string) bool {
	return matchContains(text, "magic conch")
}

func (h *conchHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	return domain.TextReply(msg.RoomID, conchAnswers[h.rng.Intn(len(conchAnswers))]), nil
}

// judgeHandler rates a statement with a random score.
type judgeHandler struct {
	meta
	rng *Rand
}

// NewJudgeHandler creates the !judge command.
func NewJudgeHandler(r *Rand) Handler {
	return &judgeHandler{
		meta: meta{
			command:     "!judge <statement>",
			description: "get a verdict on any statement",
		},
		rng: r,
	}
}

func (h *judgeHandler) CanHandle(text string) bool {
	return matchPrefix(text, "!judge")
}

func (h *judgeHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	args := argsAfter(msg.Content, "!judge")
	if len(args) == 0 {
		return domain.TextReply(msg.RoomID, "Usage: !judge <statement>"), nil
	}
	score := h.rng.Intn(101)
	statement := strings.Join(args, " ")
	return domain.TextReply(msg.RoomID, fmt.Sprintf("%q scores %d%% on the truth meter.", statement, score)), nil
}

// gachaHandler draws from the weighted drop table.
type gachaHandler struct {
	meta
	table *gacha.Table
	rng   *Rand
}

// NewGachaHandler creates the !gacha command.
func NewGachaHandler(table *gacha.Table, r *Rand) Handler {
	return &gachaHandler{
		meta: meta{
			command:     "!gacha",
			description: "draw a random item from the drop table",
		},
		table: table,
		rng:   r,
	}
}

func (h *gachaHandler) CanHandle(text string) bool {
	return matchExact(text, "!gacha")
}

func (h *gachaHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	h.rng.mu.Lock()
	drop := h.table.Draw(h.rng.r)
	h.rng.mu.Unlock()
	return domain.TextReply(msg.RoomID, fmt.Sprintf(
		"%s pulled [%s] %s!", msg.SenderName, strings.ToUpper(drop.Tier), drop.Item,
	)), nil
}
