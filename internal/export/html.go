// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/routine-tui/internal/advisor"
	"github.com/jeranaias/routine-tui/internal/util"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(conv *Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "dark" {
		theme = "light"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("    <title>Beauty Routine</title>\n")
	sb.WriteString("    <meta name=\"generator\" content=\"routine\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.ExportedAt.Format(time.RFC3339)))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString("            <h1>Beauty Routine</h1>\n")
	sb.WriteString("            <div class=\"metadata\">\n")
	if conv.Model != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(conv.Model)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Session:</strong> %s</span>\n", html.EscapeString(shortID(conv.SessionID))))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	if e.options.IncludeProducts && len(conv.Products) > 0 {
		sb.WriteString("        <section class=\"products\">\n")
		sb.WriteString("            <h2>Selected Products</h2>\n")
		sb.WriteString("            <ul>\n")
		for _, p := range conv.Products {
			sb.WriteString(fmt.Sprintf("                <li>%s (%s)</li>\n",
				html.EscapeString(p.Name), html.EscapeString(p.Brand)))
		}
		sb.WriteString("            </ul>\n")
		sb.WriteString("        </section>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, entry := range exportable(conv.Transcript) {
		sb.WriteString(renderEntry(entry))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>routine</strong> on %s</p>\n",
		conv.ExportedAt.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func renderEntry(entry advisor.Entry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", entry.Kind))
	sb.WriteString(fmt.Sprintf("                <div class=\"message-header\"><span class=\"role-label\">%s</span></div>\n",
		html.EscapeString(roleLabel(entry.Kind))))
	sb.WriteString("                <div class=\"message-content\">")
	sb.WriteString(FormatHTML(entry.Text))
	sb.WriteString("</div>\n")
	sb.WriteString("            </div>\n")
	return sb.String()
}

// FormatHTML escapes text and turns every newline into a <br>.
func FormatHTML(text string) string {
	lines := util.SplitLines(text)
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return strings.Join(lines, "<br>")
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const css = `    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            line-height: 1.6;
            padding: 2rem 1rem;
        }
        .light-theme { background: #FAFAFA; color: #1F2937; }
        .dark-theme { background: #1E1E2E; color: #CDD6F4; }
        .container { max-width: 860px; margin: 0 auto; }
        .header { margin-bottom: 1.5rem; border-bottom: 2px solid #A78BFA; padding-bottom: 1rem; }
        .header h1 { font-size: 1.8rem; }
        .metadata { display: flex; gap: 1.5rem; font-size: 0.9rem; opacity: 0.8; }
        .products { margin-bottom: 1.5rem; }
        .products h2 { font-size: 1.2rem; margin-bottom: 0.5rem; }
        .products ul { padding-left: 1.5rem; }
        .message { border-radius: 8px; padding: 1rem 1.25rem; margin-bottom: 1rem; border-left: 4px solid #A78BFA; }
        .light-theme .message { background: #F5F3FF; }
        .dark-theme .message { background: #313244; }
        .user-message { border-left-color: #3B82F6; }
        .error-message { border-left-color: #E11D48; }
        .notice-message { border-left-color: #F59E0B; }
        .message-header { font-weight: 600; margin-bottom: 0.5rem; font-size: 0.9rem; }
        .footer { margin-top: 2rem; font-size: 0.8rem; opacity: 0.6; text-align: center; }
    </style>
`
