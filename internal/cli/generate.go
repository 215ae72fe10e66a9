// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/routine-tui/internal/advisor"
	"github.com/jeranaias/routine-tui/internal/export"
)

func newGenerateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a routine from the persisted selection",
		Long: `Send the selected products to the chat endpoint and print the routine.

Output is rendered as markdown on a terminal and printed raw when piped.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := e.generate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return err
		},
	}
}

// generate runs one routine generation and prints the result.
func (e *env) generate(ctx context.Context, out, errOut io.Writer) (*advisor.Advisor, error) {
	store, err := e.selection(ctx)
	if err != nil {
		return nil, err
	}
	adv := e.advisor()
	if isTerminal(errOut) {
		fmt.Fprintln(errOut, DimStyle.Render(advisor.MsgGenerating))
	}
	err = adv.GenerateRoutine(ctx, store.Items())
	printTranscriptTail(out, errOut, adv.Transcript(), e.cfg.UI.Markdown)
	return adv, err
}

// printTranscriptTail prints the newest transcript entry. Replies go to out;
// notices and errors go to errOut.
func printTranscriptTail(out, errOut io.Writer, entries []advisor.Entry, markdown bool) {
	if len(entries) == 0 {
		return
	}
	last := entries[len(entries)-1]
	switch last.Kind {
	case advisor.EntryRoutine, advisor.EntryAssistant:
		writeReply(out, last.Text, markdown)
	case advisor.EntryNotice:
		fmt.Fprintf(errOut, "%s %s\n", WarningStyle.Render("[!]"), last.Text)
	case advisor.EntryError:
		fmt.Fprintf(errOut, "%s %s\n", ErrorStyle.Render("[X]"), last.Text)
	}
}

// =============================================================================
// CHAT REPL
// =============================================================================

func newChatCmd(e *env) *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Generate a routine, then ask follow-up questions",
		Long: `Generate a routine from the persisted selection and keep the
conversation open for follow-up questions.

Commands inside the chat:
  /export [md|html|json]  save the conversation
  /history                show the conversation sent to the model
  /help                   show this list
  /quit                   leave`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()

			adv, err := e.generate(ctx, out, errOut)
			if err != nil {
				return err
			}

			lr := e.newLineReader(cmd.InOrStdin(), out)
			defer lr.Close()

			s := &chatSession{env: e, adv: adv, out: out, errOut: errOut, exportDir: exportDir}
			return s.loop(ctx, lr)
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory for /export")
	return cmd
}

type chatSession struct {
	env       *env
	adv       *advisor.Advisor
	out       io.Writer
	errOut    io.Writer
	exportDir string
}

func (s *chatSession) loop(ctx context.Context, lr lineReader) error {
	fmt.Fprintln(s.out, DimStyle.Render("Ask a follow-up question, or /help."))
	for {
		input, err := lr.Prompt("routine> ")
		if err != nil {
			// EOF, Ctrl+D or Ctrl+C
			fmt.Fprintln(s.out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		lr.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if !s.command(ctx, input) {
				return nil
			}
			continue
		}

		err = s.adv.AskFollowUp(ctx, input)
		printTranscriptTail(s.out, s.errOut, s.adv.Transcript(), s.env.cfg.UI.Markdown)
		if err != nil {
			log.Error().Err(err).Str("session", s.adv.SessionID()).Msg("follow-up failed")
		}
	}
}

// command runs a slash command and reports whether the loop continues.
func (s *chatSession) command(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit", "/q":
		return false

	case "/help", "/?":
		fmt.Fprintln(s.out, "/export [md|html|json]  save the conversation")
		fmt.Fprintln(s.out, "/history                show the conversation")
		fmt.Fprintln(s.out, "/quit                   leave")

	case "/history":
		for _, m := range s.adv.History() {
			fmt.Fprintf(s.out, "%s\n%s\n\n", TitleStyle.Render(string(m.Role)+":"), m.Content)
		}

	case "/export":
		format := "md"
		if len(fields) > 1 {
			format = fields[1]
		}
		path, err := s.export(ctx, format)
		if err != nil {
			fmt.Fprintf(s.errOut, "%s %v\n", ErrorStyle.Render("[X]"), err)
			return true
		}
		fmt.Fprintf(s.out, "%s exported to %s\n", SuccessStyle.Render("[OK]"), path)

	default:
		fmt.Fprintf(s.errOut, "%s unknown command %s (try /help)\n", WarningStyle.Render("[!]"), fields[0])
	}
	return true
}

func (s *chatSession) export(ctx context.Context, format string) (string, error) {
	opts := export.DefaultOptions()
	opts.OutputDir = s.exportDir
	exp, err := export.ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	store, err := s.env.selection(ctx)
	if err != nil {
		return "", err
	}
	conv := export.NewConversation(s.adv, store.Items(), s.env.cfg.Chat.Model)
	return export.ExportToFile(conv, exp, opts)
}
