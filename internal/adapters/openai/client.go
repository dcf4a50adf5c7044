// Package openai is the text-completion adapter behind the support
// concierge. The provider is treated as opaque: ordered chat turns in,
// free-form text out, parsed defensively by the caller.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"thefix/internal/adapters/observability"
	"thefix/internal/domain"
)

const maxReplyTokens = 200

type Client struct {
	base  string
	key   string
	model string
	hc    *http.Client
	rl    *rate.Limiter
}

func New(base, key, model string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  base,
		key:   key,
		model: model,
		hc:    &http.Client{Timeout: 30 * time.Second},
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a system prompt plus the ordered turns and returns the
// model's reply text. One round trip, no retries; callers substitute a
// canned reply on failure.
func (c *Client) Complete(ctx context.Context, system string, turns []domain.ChatMessage) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	msgs := make([]message, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, message{Role: "system", Content: system})
	}
	for _, t := range turns {
		msgs = append(msgs, message{Role: t.Role, Content: t.Content})
	}

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: msgs, MaxTokens: maxReplyTokens})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("openai", "chat_completions", 0, time.Since(start))
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("openai", "chat_completions", resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("openai: parse response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai: %s (%s)", out.Error.Message, out.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
