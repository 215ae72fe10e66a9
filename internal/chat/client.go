// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jeranaias/routine-tui/internal/config"
)

const (
	// DefaultTimeout is the default timeout for one request.
	DefaultTimeout = 60 * time.Second

	// DefaultModel is sent when no model is configured.
	DefaultModel = "gpt-4o"

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024
)

// Completer produces the assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	IsConfigured() bool
}

// Client posts conversations to the configured endpoint.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient creates a client from chat settings.
func NewClient(cfg config.ChatConfig) *Client {
	timeout := DefaultTimeout
	if cfg.TimeoutSecs > 0 {
		timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	// Zero requests per minute disables pacing
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.RequestsPerMinute / 4
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		model:      model,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		baseDelay:  retryBaseDelay,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        log.Logger.With().Str("component", "chat").Logger(),
	}
}

// WithRetryDelay overrides the base backoff delay.
func (c *Client) WithRetryDelay(d time.Duration) *Client {
	c.baseDelay = d
	return c
}

// IsConfigured reports whether an endpoint is set.
func (c *Client) IsConfigured() bool {
	return c.endpoint != ""
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Complete sends messages and returns the assistant reply text.
//
// Rate limiting and server errors are retried up to the configured number
// of times with exponential backoff.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	body, err := sonic.Marshal(request{Messages: messages, Model: c.model})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			c.log.Debug().Int("attempt", attempt).Dur("delay", delay).Err(lastErr).Msg("retrying chat request")
			select {
			case <-ctx.Done():
				return "", &Error{Kind: NetworkError, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", &Error{Kind: NetworkError, Err: err}
		}

		reply, err := c.doRequest(ctx, body, len(messages))
		if err == nil {
			return reply, nil
		}

		var cerr *Error
		if errors.As(err, &cerr) && cerr.Temporary() {
			lastErr = err
			continue
		}
		return "", err
	}

	return "", lastErr
}

// doRequest performs a single POST.
func (c *Client) doRequest(ctx context.Context, body []byte, turns int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: NetworkError, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after request to prevent logging
	req.Header.Del("Authorization")

	if err != nil {
		return "", &Error{Kind: NetworkError, Err: err}
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return "", &Error{Kind: NetworkError, Status: resp.StatusCode, Err: err}
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("turns", turns).
		Dur("took", time.Since(start)).
		Msg("chat response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{
			Kind:   NetworkError,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", snippet(data)),
		}
	}

	return parseReply(data)
}

// parseReply extracts choices[0].message.content.
func parseReply(data []byte) (string, error) {
	var env response
	if err := sonic.Unmarshal(data, &env); err != nil {
		return "", &Error{Kind: ParseError, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if len(env.Choices) == 0 {
		return "", &Error{Kind: ParseError, Err: errors.New("response has no choices")}
	}
	msg := env.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", &Error{Kind: ParseError, Err: errors.New("response has no choices[0].message.content")}
	}
	return *msg.Content, nil
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// calculateBackoff returns the delay to wait before the next retry.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
