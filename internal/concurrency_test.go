// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/routine-tui/internal/advisor"
	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/chat"
	"github.com/jeranaias/routine-tui/internal/config"
	"github.com/jeranaias/routine-tui/internal/kv"
	"github.com/jeranaias/routine-tui/internal/selection"
)

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================
// Run with -race to catch data races.

// TestConcurrency_ConfigGlobalAccess reads the global config from many
// goroutines while it is being replaced.
func TestConcurrency_ConfigGlobalAccess(t *testing.T) {
	config.ResetGlobalForTesting()
	config.SetGlobal(config.Default())
	defer config.ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cfg := config.Global()
			assert.NotNil(t, cfg)
		}()
		go func(n int) {
			defer wg.Done()
			cfg := config.Default()
			cfg.UI.Columns = n%6 + 1
			config.SetGlobal(cfg)
		}(i)
	}
	wg.Wait()
}

// TestConcurrency_SelectionToggles toggles distinct products from many
// goroutines; every product ends up selected exactly once and the
// persisted list matches memory.
func TestConcurrency_SelectionToggles(t *testing.T) {
	ctx := context.Background()
	backend, err := kv.NewSQLiteStore(filepath.Join(t.TempDir(), "routine.db"))
	require.NoError(t, err)
	defer backend.Close()

	store := selection.New(backend, selection.DefaultKey)
	var notified atomic.Int64
	cancel := store.Subscribe(func([]catalog.Product) { notified.Add(1) })
	defer cancel()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Toggle(ctx, catalog.Product{ID: fmt.Sprintf("p%02d", i), Name: "Product"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, store.Len())
	assert.Equal(t, int64(n), notified.Load())

	reloaded := selection.New(backend, selection.DefaultKey)
	reloaded.Hydrate(ctx)
	assert.ElementsMatch(t, store.Items(), reloaded.Items())
}

// TestConcurrency_AdvisorBusyGuard fires several generations at once; only
// one reaches the endpoint and the rest fail with ErrBusy.
func TestConcurrency_AdvisorBusyGuard(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"done"}}]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Chat.Endpoint = srv.URL
	cfg.Chat.RequestsPerMinute = 0
	adv := advisor.New(chat.NewClient(cfg.Chat), cfg.Chat.SystemPrompt)
	selected := []catalog.Product{{ID: "a1", Name: "Foaming Cleanser"}}

	first := make(chan error, 1)
	go func() { first <- adv.GenerateRoutine(context.Background(), selected) }()
	<-entered

	var wg sync.WaitGroup
	var busy atomic.Int64
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := adv.GenerateRoutine(context.Background(), selected)
			if errors.Is(err, advisor.ErrBusy) {
				busy.Add(1)
			}
		}()
	}
	wg.Wait()
	close(release)

	require.NoError(t, <-first)
	assert.Equal(t, int64(10), busy.Load())
	assert.Equal(t, int64(1), calls.Load())
	assert.False(t, adv.Busy())
}
