// Package openai provides a language model adapter for OpenAI-compatible chat
// completion APIs. The default endpoint is Groq's OpenAI-compatible API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1/"
	// DefaultModel is used when no model is configured.
	DefaultModel = "llama-3.3-70b-versatile"
)

// Options configures the client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// HTTPClient overrides the transport; tests point it at httptest servers.
	HTTPClient *http.Client
}

// Client implements ports.LanguageModel on top of the chat completions API.
type Client struct {
	client sdk.Client
	model  string
}

var _ ports.LanguageModel = (*Client)(nil)

// New builds a client. SDK retries are disabled: each Complete is one attempt.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		client: sdk.NewClient(
			option.WithAPIKey(opts.APIKey),
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
			option.WithRequestTimeout(timeout),
		),
		model: model,
	}, nil
}

// Complete implements ports.LanguageModel.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.model),
		Messages: encodeMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai: empty response")
	}
	return content, nil
}

func encodeMessages(msgs []domain.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, sdk.SystemMessage(m.Content))
		case domain.RoleAssistant:
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}
