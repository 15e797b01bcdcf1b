// Package anthropic provides a language model adapter backed by the Anthropic
// Claude Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5"
	// DefaultMaxTokens applies when a request does not set MaxTokens; the
	// Messages API requires a cap.
	DefaultMaxTokens = 1024
)

// MessagesClient is the subset of the SDK used here. It is satisfied by
// *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client implements ports.LanguageModel on top of Claude Messages.
type Client struct {
	msg   MessagesClient
	model string
}

var _ ports.LanguageModel = (*Client)(nil)

// New builds a client from a Messages client.
func New(msg MessagesClient, model string) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic client is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{msg: msg, model: model}, nil
}

// NewFromAPIKey constructs a client using the SDK's HTTP client with retries
// disabled.
func NewFromAPIKey(apiKey, baseURL, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	ac := sdk.NewClient(opts...)
	return New(&ac.Messages, model)
}

// Complete implements ports.LanguageModel. System messages are lifted into
// the request's system blocks; consecutive messages of the same role are
// merged since the API expects alternating turns.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	system, conversation := encodeMessages(req.Messages)
	if len(conversation) == 0 {
		return "", errors.New("anthropic: no user or assistant messages")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  conversation,
		Model:     sdk.Model(c.model),
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", errors.New("anthropic: empty response")
	}
	return content, nil
}

type turn struct {
	role  domain.Role
	texts []string
}

func encodeMessages(msgs []domain.Message) ([]sdk.TextBlockParam, []sdk.MessageParam) {
	var system []sdk.TextBlockParam
	var turns []turn
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			system = append(system, sdk.TextBlockParam{Text: m.Content})
			continue
		}
		role := domain.RoleUser
		if m.Role == domain.RoleAssistant {
			role = domain.RoleAssistant
		}
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].texts = append(turns[n-1].texts, m.Content)
			continue
		}
		turns = append(turns, turn{role: role, texts: []string{m.Content}})
	}

	conversation := make([]sdk.MessageParam, 0, len(turns))
	for _, t := range turns {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(t.texts))
		for _, text := range t.texts {
			blocks = append(blocks, sdk.NewTextBlock(text))
		}
		if t.role == domain.RoleAssistant {
			conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
		} else {
			conversation = append(conversation, sdk.NewUserMessage(blocks...))
		}
	}
	return system, conversation
}
