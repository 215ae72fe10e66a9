// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/routine-tui/internal/advisor"
	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/util"
)

// =============================================================================
// CONVERSATION SNAPSHOT
// =============================================================================

// Conversation is a point-in-time copy of an advisor session.
type Conversation struct {
	SessionID  string            `json:"session_id"`
	Model      string            `json:"model"`
	ExportedAt time.Time         `json:"exported_at"`
	Products   []catalog.Product `json:"products"`
	Transcript []advisor.Entry   `json:"transcript"`
}

// Session is the part of an advisor an export needs.
type Session interface {
	SessionID() string
	Transcript() []advisor.Entry
}

// NewConversation snapshots s together with the selection it was about.
func NewConversation(s Session, products []catalog.Product, model string) *Conversation {
	return &Conversation{
		SessionID:  s.SessionID(),
		Model:      model,
		ExportedAt: time.Now(),
		Products:   products,
		Transcript: s.Transcript(),
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(conv *Conversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeProducts lists the selected products before the transcript.
	IncludeProducts bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeProducts: true,
		Theme:           "light",
	}
}

// ForFormat returns the exporter for md, markdown, html or json.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want markdown, html or json)", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a conversation into opts.OutputDir and returns the
// file path.
func ExportToFile(conv *Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("routine_%s_%s%s",
		sanitizeFilename(shortID(conv.SessionID)),
		conv.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
	outputPath := filepath.Join(opts.OutputDir, filename)

	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// WriteFile exports a conversation to an explicit path.
func WriteFile(conv *Conversation, exporter Exporter, path string) error {
	content, err := exporter.Export(conv)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func validate(conv *Conversation) error {
	if conv == nil {
		return fmt.Errorf("conversation is nil")
	}
	if len(conv.Transcript) == 0 {
		return fmt.Errorf("conversation has no transcript")
	}
	return nil
}

// exportable drops transient loading entries.
func exportable(entries []advisor.Entry) []advisor.Entry {
	out := make([]advisor.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Kind != advisor.EntryLoading {
			out = append(out, e)
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "session"
	}
	return id
}

// roleLabel returns the heading used for an entry.
func roleLabel(k advisor.EntryKind) string {
	switch k {
	case advisor.EntryRoutine:
		return "Your Routine"
	case advisor.EntryUser:
		return "You"
	case advisor.EntryAssistant:
		return "Advisor"
	case advisor.EntryNotice:
		return "Notice"
	case advisor.EntryError:
		return "Error"
	default:
		return k.String()
	}
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(s, 50)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := make([]rune, 0, len(s))
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "routine"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
