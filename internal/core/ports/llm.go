package ports

import (
	"context"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

// CompletionRequest is an ordered, role-tagged prompt plus sampling parameters.
type CompletionRequest struct {
	Messages    []domain.Message
	Temperature float64
	MaxTokens   int
}

// LanguageModel returns one assistant message for a prompt.
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
