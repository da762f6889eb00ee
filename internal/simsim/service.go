// Package simsim implements the learned-reply feature: users teach the
// bot prompt/response pairs in private chat and anyone can query them.
package simsim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "relaybot.io/relaybot/internal/pkg/errors"
	"relaybot.io/relaybot/internal/pkg/logger"
)

// Entry is one learned prompt/response pair.
type Entry struct {
	Prompt    string
	Response  string
	CreatedBy string
	CreatedAt time.Time
}

// PromptCount is one row of the most-taught-prompts ranking.
type PromptCount struct {
	Prompt string
	Count  int
}

// Repository is the persistence contract for learned replies.
type Repository interface {
	// Insert stores one pair. Returns ErrAlreadyExists for a duplicate
	// (prompt, response) combination.
	Insert(ctx context.Context, e Entry) error

	// DeleteResponse removes one exact pair, reporting whether it existed.
	DeleteResponse(ctx context.Context, prompt, response string) (bool, error)

	// DeleteAll removes every response for the prompt and reports how
	// many went.
	DeleteAll(ctx context.Context, prompt string) (int64, error)

	// Responses returns every stored response for the prompt.
	Responses(ctx context.Context, prompt string) ([]string, error)

	// Count returns how many responses the prompt has.
	Count(ctx context.Context, prompt string) (int, error)

	// TopPrompts returns up to limit prompts by response count, descending.
	TopPrompts(ctx context.Context, limit int) ([]PromptCount, error)
}

// Service wraps the repository with normalization and ranking limits.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Learn stores one prompt/response pair. Teaching the same pair twice is
// not an error; the duplicate is silently dropped.
func (s *Service) Learn(ctx context.Context, prompt, response, createdBy string) error {
	prompt = strings.TrimSpace(prompt)
	response = strings.TrimSpace(response)
	if prompt == "" || response == "" {
		return apperrors.ErrEmptySimSimPair()
	}

	err := s.repo.Insert(ctx, Entry{
		Prompt:    prompt,
		Response:  response,
		CreatedBy: createdBy,
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store learned reply: %w", err)
	}
	logger.Info("learned reply stored",
		zap.String("prompt", prompt),
		zap.String("created_by", createdBy),
	)
	return nil
}

// Forget removes one exact prompt/response pair.
func (s *Service) Forget(ctx context.Context, prompt, response string) (bool, error) {
	deleted, err := s.repo.DeleteResponse(ctx, strings.TrimSpace(prompt), strings.TrimSpace(response))
	if err != nil {
		return false, fmt.Errorf("delete learned reply: %w", err)
	}
	return deleted, nil
}

// ForgetAll removes every response for the prompt.
func (s *Service) ForgetAll(ctx context.Context, prompt string) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx, strings.TrimSpace(prompt))
	if err != nil {
		return 0, fmt.Errorf("delete learned replies: %w", err)
	}
	if deleted > 0 {
		logger.Info("learned replies deleted",
			zap.String("prompt", strings.TrimSpace(prompt)),
			zap.Int64("deleted", deleted),
		)
	}
	return deleted, nil
}

// Responses returns the stored responses for the prompt; the caller
// picks one at random.
func (s *Service) Responses(ctx context.Context, prompt string) ([]string, error) {
	out, err := s.repo.Responses(ctx, strings.TrimSpace(prompt))
	if err != nil {
		return nil, fmt.Errorf("lookup learned replies: %w", err)
	}
	return out, nil
}

// Count returns how many responses the prompt has.
func (s *Service) Count(ctx context.Context, prompt string) (int, error) {
	n, err := s.repo.Count(ctx, strings.TrimSpace(prompt))
	if err != nil {
		return 0, fmt.Errorf("count learned replies: %w", err)
	}
	return n, nil
}

// TopPrompts returns the most-taught prompts. The limit is clamped to
// 1..50 with a default of 10.
func (s *Service) TopPrompts(ctx context.Context, limit int) ([]PromptCount, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	out, err := s.repo.TopPrompts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("rank learned prompts: %w", err)
	}
	return out, nil
}
