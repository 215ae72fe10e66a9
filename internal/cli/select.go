// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/export"
	"github.com/jeranaias/routine-tui/internal/ui/panel"
)

func newSelectCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Inspect and change the persisted selection",
		Long: `Inspect and change the persisted product selection.

Examples:
  routine select list
  routine select toggle a1
  routine select remove 0
  routine select export --format xlsx -o selection.xlsx`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newSelectListCmd(e),
		newSelectToggleCmd(e),
		newSelectRemoveCmd(e),
		newSelectClearCmd(e),
		newSelectExportCmd(e),
	)
	return cmd
}

func newSelectListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show selected products with their index",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.selection(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			items := store.Items()
			if len(items) == 0 {
				fmt.Fprintln(out, panel.MsgEmpty)
				return nil
			}
			for i, p := range items {
				row := panel.Row{Index: i, Product: p}
				fmt.Fprintf(out, "%3d  %s\n", i, row.Label())
			}
			return nil
		},
	}
}

func newSelectToggleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Select a product, or unselect it if already selected",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			products, err := e.loader().Load(ctx)
			if err != nil {
				return newCommandError("select", "toggle", err)
			}
			p, ok := catalog.FindByID(products, args[0])
			if !ok {
				return newUsageError("product id", args[0], "not in the catalog", "routine products")
			}

			store, err := e.selection(ctx)
			if err != nil {
				return err
			}
			selected, err := store.Toggle(ctx, p)
			if err != nil {
				return newCommandError("select", "toggle", err)
			}
			verb := "Unselected"
			if selected {
				verb = "Selected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, p.Name, p.Brand)
			return nil
		},
	}
}

func newSelectRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove the selected product at index (see select list)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return newUsageError("index", args[0], "must be a number", "routine select remove 0")
			}
			ctx := cmd.Context()
			store, err := e.selection(ctx)
			if err != nil {
				return err
			}
			items := store.Items()
			removed, err := store.RemoveAt(ctx, index)
			if err != nil {
				return newCommandError("select", "remove", err)
			}
			if !removed {
				// Out of range is a no-op, same as in the TUI.
				fmt.Fprintf(cmd.ErrOrStderr(), "%s nothing selected at index %d\n", WarningStyle.Render("[!]"), index)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", items[index].Name, items[index].Brand)
			return nil
		},
	}
}

func newSelectClearCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Unselect everything",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := e.selection(ctx)
			if err != nil {
				return err
			}
			n := store.Len()
			if err := store.Clear(ctx); err != nil {
				return newCommandError("select", "clear", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d selected product(s)\n", n)
			return nil
		},
	}
}

func newSelectExportCmd(e *env) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selection to a CSV or XLSX file",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
			}
			if format == "" {
				format = "csv"
			}
			format = strings.ToLower(format)
			if format != "csv" && format != "xlsx" {
				return newUsageError("format", format, "must be csv or xlsx", "routine select export --format xlsx -o selection.xlsx")
			}
			if output == "" {
				output = "selection." + format
			}

			store, err := e.selection(cmd.Context())
			if err != nil {
				return err
			}
			if err := export.WriteSelection(store.Items(), format, output); err != nil {
				return newCommandError("select", "export", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %d product(s) to %s\n",
				SuccessStyle.Render("[OK]"), store.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or xlsx (default from -o extension, else csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default selection.<format>)")
	return cmd
}
