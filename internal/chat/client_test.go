// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/routine-tui/internal/config"
)

const okEnvelope = `{"choices":[{"message":{"role":"assistant","content":"Step 1: Cleanse.\nStep 2: Serum."}}]}`

func newTestClient(url string, retries int) *Client {
	return NewClient(config.ChatConfig{
		Endpoint:   url,
		MaxRetries: retries,
	}).WithRetryDelay(time.Millisecond)
}

func TestComplete_NotConfigured(t *testing.T) {
	c := NewClient(config.ChatConfig{})
	assert.False(t, c.IsConfigured())

	_, err := c.Complete(context.Background(), []Message{NewUserMessage("hi")})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestComplete_Success(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(okEnvelope))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 0)
	reply, err := c.Complete(context.Background(), []Message{
		NewSystemMessage("advisor"),
		NewUserMessage("products"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Step 1: Cleanse.\nStep 2: Serum.", reply)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "products", got.Messages[1].Content)
}

func TestComplete_BearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(okEnvelope))
	}))
	defer srv.Close()

	c := NewClient(config.ChatConfig{Endpoint: srv.URL, APIKey: "sk-test", Model: "gpt-4o-mini"})
	assert.Equal(t, "gpt-4o-mini", c.Model())
	_, err := c.Complete(context.Background(), []Message{NewUserMessage("hi")})
	require.NoError(t, err)
}

func TestComplete_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"bad request", http.StatusBadRequest, `{"error":"nope"}`, NetworkError},
		{"unauthorized", http.StatusUnauthorized, ``, NetworkError},
		{"malformed json", http.StatusOK, `{"choices":`, ParseError},
		{"empty choices", http.StatusOK, `{"choices":[]}`, ParseError},
		{"no message", http.StatusOK, `{"choices":[{}]}`, ParseError},
		{"no content", http.StatusOK, `{"choices":[{"message":{"role":"assistant"}}]}`, ParseError},
		{"other envelope", http.StatusOK, `{"reply":"hello"}`, ParseError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, 2).Complete(context.Background(), []Message{NewUserMessage("x")})
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tc.kind, cerr.Kind)
		})
	}
}

func TestComplete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, 0).Complete(context.Background(), []Message{NewUserMessage("x")})
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, NetworkError, cerr.Kind)
}

func TestComplete_RetriesTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.Write([]byte(okEnvelope))
		}
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL, 2).Complete(context.Background(), []Message{NewUserMessage("x")})
	require.NoError(t, err)
	assert.Contains(t, reply, "Step 1")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestComplete_RetriesExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Complete(context.Background(), []Message{NewUserMessage("x")})
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, http.StatusServiceUnavailable, cerr.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestComplete_NoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Complete(context.Background(), []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComplete_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(config.ChatConfig{Endpoint: srv.URL, MaxRetries: 2}).
		Complete(ctx, []Message{NewUserMessage("x")})
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, NetworkError, cerr.Kind)
}

func TestCalculateBackoff(t *testing.T) {
	c := NewClient(config.ChatConfig{})
	assert.Equal(t, 500*time.Millisecond, c.calculateBackoff(1))
	assert.Equal(t, time.Second, c.calculateBackoff(2))
	assert.Equal(t, 2*time.Second, c.calculateBackoff(3))
	assert.Equal(t, retryMaxDelay, c.calculateBackoff(10))
}

func TestError_Temporary(t *testing.T) {
	assert.True(t, (&Error{Kind: NetworkError, Status: 429}).Temporary())
	assert.True(t, (&Error{Kind: NetworkError, Status: 503}).Temporary())
	assert.False(t, (&Error{Kind: NetworkError, Status: 404}).Temporary())
	assert.False(t, (&Error{Kind: NetworkError}).Temporary())
	assert.False(t, (&Error{Kind: ParseError, Status: 500}).Temporary())
}
