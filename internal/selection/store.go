// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/kv"
)

// DefaultKey is the key the selection is persisted under.
const DefaultKey = "selectedProducts"

// StorageError reports a failed read or write of the persisted selection.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("selection %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Listener receives a snapshot of the selection after every change.
type Listener func(items []catalog.Product)

// Store is the single owner of the selection. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	items []catalog.Product
	kv    kv.Store
	key   string

	subMu   sync.Mutex
	subs    map[int]Listener
	nextSub int

	log zerolog.Logger
}

// New creates an empty store persisting to backend under key.
func New(backend kv.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		kv:   backend,
		key:  key,
		subs: make(map[int]Listener),
		log:  log.Logger.With().Str("component", "selection").Logger(),
	}
}

// Hydrate replaces the in-memory selection with the persisted one.
// Absent or unreadable data yields an empty selection; the failure is
// logged and never returned.
func (s *Store) Hydrate(ctx context.Context) {
	items, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Msg("discarding unreadable selection")
		}
		items = nil
	}

	s.mu.Lock()
	s.items = items
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug().Int("count", len(snapshot)).Msg("selection hydrated")
	s.notify(snapshot)
}

func (s *Store) load(ctx context.Context) ([]catalog.Product, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, &StorageError{Op: "read", Key: s.key, Err: err}
	}

	var raw []catalog.Product
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, &StorageError{Op: "decode", Key: s.key, Err: err}
	}

	// Entries without an id or repeating one cannot come from Toggle
	seen := make(map[string]struct{}, len(raw))
	items := make([]catalog.Product, 0, len(raw))
	for _, p := range raw {
		if p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		items = append(items, p)
	}
	return items, nil
}

// Toggle removes p if its id is selected, otherwise appends it. It reports
// whether p is selected afterwards.
func (s *Store) Toggle(ctx context.Context, p catalog.Product) (bool, error) {
	s.mu.Lock()
	prev := s.items
	next := make([]catalog.Product, 0, len(prev)+1)
	selected := true
	for _, it := range prev {
		if it.ID == p.ID {
			selected = false
			continue
		}
		next = append(next, it)
	}
	if selected {
		next = append(next, p)
	}

	if err := s.commitLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return !selected, err
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug().Str("id", p.ID).Bool("selected", selected).Msg("selection toggled")
	s.notify(snapshot)
	return selected, nil
}

// RemoveAt removes the entry at index. An index outside [0, Len()) is a
// no-op reported as false.
func (s *Store) RemoveAt(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return false, nil
	}
	next := make([]catalog.Product, 0, len(s.items)-1)
	next = append(next, s.items[:index]...)
	next = append(next, s.items[index+1:]...)

	if err := s.commitLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return true, nil
}

// Clear empties the selection.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.commitLocked(ctx, nil); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify(nil)
	return nil
}

// commitLocked persists next and only then installs it. On failure the
// in-memory selection is left as it was.
func (s *Store) commitLocked(ctx context.Context, next []catalog.Product) error {
	payload := next
	if payload == nil {
		payload = []catalog.Product{}
	}
	data, err := sonic.Marshal(payload)
	if err != nil {
		return &StorageError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.log.Error().Err(err).Msg("failed to persist selection")
		return &StorageError{Op: "write", Key: s.key, Err: err}
	}
	s.items = next
	return nil
}

func (s *Store) snapshotLocked() []catalog.Product {
	if len(s.items) == 0 {
		return nil
	}
	return append([]catalog.Product(nil), s.items...)
}

// Items returns a copy of the selection in insertion order.
func (s *Store) Items() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of selected products.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IndexOf returns the position of id, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is selected.
func (s *Store) Contains(id string) bool {
	return s.IndexOf(id) >= 0
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn for change notifications and returns a function
// that removes it. Listeners run synchronously on the mutating goroutine,
// outside the store lock.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// Subscribers returns the number of registered listeners.
func (s *Store) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Store) notify(snapshot []catalog.Product) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(append([]catalog.Product(nil), snapshot...))
	}
}
