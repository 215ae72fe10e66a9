// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/routine-tui/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	var sb strings.Builder

	// YAML frontmatter
	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("session: %s\n", conv.SessionID))
	if conv.Model != "" {
		sb.WriteString(fmt.Sprintf("model: %s\n", escapeYAML(conv.Model)))
	}
	sb.WriteString(fmt.Sprintf("exported: %s\n", conv.ExportedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("products: %d\n", len(conv.Products)))
	sb.WriteString("generator: routine\n")
	sb.WriteString("---\n\n")

	sb.WriteString("# Beauty Routine\n\n")

	if e.options.IncludeProducts && len(conv.Products) > 0 {
		sb.WriteString("## Selected Products\n\n")
		for _, p := range conv.Products {
			sb.WriteString(fmt.Sprintf("- **%s** (%s) - %s\n",
				escapeMarkdown(p.Name), escapeMarkdown(p.Brand), escapeMarkdown(p.Category)))
		}
		sb.WriteString("\n---\n\n")
	}

	for _, entry := range exportable(conv.Transcript) {
		sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel(entry.Kind)))
		sb.WriteString(formatMessageContent(entry.Text))
		sb.WriteString("\n\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported %s*\n", formatTimestamp(conv.ExportedAt)))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// formatMessageContent keeps line breaks as hard breaks.
func formatMessageContent(content string) string {
	lines := util.SplitLines(strings.TrimRight(content, "\n"))
	return strings.Join(lines, "  \n")
}

// escapeMarkdown escapes inline markup characters.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"[", "\\[",
		"]", "\\]",
	)
	return replacer.Replace(s)
}

// escapeYAML quotes a scalar when it contains YAML syntax.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
