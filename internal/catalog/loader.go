// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/routine-tui/internal/config"
)

// maxCatalogSize bounds how much of a catalog response is read.
const maxCatalogSize = 10 * 1024 * 1024

// DefaultTimeout applies when catalog.timeout_secs is zero.
const DefaultTimeout = 15 * time.Second

// document is the on-the-wire shape of a catalog.
type document struct {
	Products *[]Product `json:"products"`
}

// Loader fetches the configured catalog source.
type Loader struct {
	source     string
	root       string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewLoader creates a Loader from catalog settings.
func NewLoader(cfg config.CatalogConfig) *Loader {
	timeout := DefaultTimeout
	if cfg.TimeoutSecs > 0 {
		timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	return &Loader{
		source:     cfg.Source,
		root:       cfg.Root,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Logger.With().Str("component", "catalog").Logger(),
	}
}

// Source returns the configured source as given.
func (l *Loader) Source() string {
	return l.source
}

// IsRemote reports whether the source is fetched over HTTP.
func (l *Loader) IsRemote() bool {
	return config.IsURL(l.source)
}

// Path resolves a local source against the application root.
// It returns "" for remote sources.
func (l *Loader) Path() string {
	if l.IsRemote() {
		return ""
	}
	if filepath.IsAbs(l.source) {
		return l.source
	}
	root := l.root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, l.source)
}

// Load fetches and decodes the catalog. On any failure it returns a
// *Error and a nil slice.
func (l *Loader) Load(ctx context.Context) ([]Product, error) {
	start := time.Now()

	var (
		data []byte
		err  error
	)
	if l.IsRemote() {
		data, err = l.fetch(ctx)
	} else {
		data, err = l.read()
	}
	if err != nil {
		l.log.Warn().Err(err).Str("source", l.source).Msg("catalog fetch failed")
		return nil, &Error{Kind: NetworkError, Source: l.source, Err: err}
	}

	products, err := Decode(data)
	if err != nil {
		l.log.Warn().Err(err).Str("source", l.source).Msg("catalog parse failed")
		return nil, &Error{Kind: ParseError, Source: l.source, Err: err}
	}

	l.log.Debug().
		Int("products", len(products)).
		Dur("took", time.Since(start)).
		Msg("catalog loaded")
	return products, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// SECURITY: Limit response size to prevent memory exhaustion
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxCatalogSize {
		return nil, fmt.Errorf("catalog exceeds %d bytes", maxCatalogSize)
	}
	return data, nil
}

func (l *Loader) read() ([]byte, error) {
	path := l.Path()
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxCatalogSize {
		return nil, fmt.Errorf("catalog exceeds %d bytes", maxCatalogSize)
	}
	return os.ReadFile(path)
}

// Decode parses a catalog document.
func Decode(data []byte) ([]Product, error) {
	var doc document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	if doc.Products == nil {
		return nil, errors.New("catalog has no products array")
	}
	return *doc.Products, nil
}
