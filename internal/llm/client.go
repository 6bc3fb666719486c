// Package llm asks Claude vision for sticker accessibility text.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrNoAPIKey is returned when no Anthropic API key is configured
var ErrNoAPIKey = errors.New("no Anthropic API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")

// messageSender is the part of the Messages API the describer calls
type messageSender interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client describes sticker images with one Claude model
type Client struct {
	messages  messageSender
	model     anthropic.Model
	maxTokens int64
}

// NewClient creates a client for the given model. The key must be set and
// the token budget positive.
func NewClient(apiKey string, model string, maxTokens int) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic model is empty")
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("anthropic max_tokens must be positive, got %d", maxTokens)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		messages:  &client.Messages,
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
	}, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return string(c.model)
}
