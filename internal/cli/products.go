// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/selection"
	"github.com/jeranaias/routine-tui/internal/ui/grid"
	"github.com/jeranaias/routine-tui/internal/ui/styles"
	"github.com/jeranaias/routine-tui/internal/util"
)

func newProductsCmd(e *env) *cobra.Command {
	var (
		category string
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Long: `List the products in the catalog, optionally limited to one category.

Selected products are marked with [x].

Examples:
  routine products
  routine products --category cleanser
  routine products --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			products, err := e.loader().Load(ctx)
			if err != nil {
				return newCommandError("products", "load", err)
			}
			filtered := catalog.FilterByCategory(products, category)

			out := cmd.OutOrStdout()
			if jsonOut {
				if filtered == nil {
					filtered = []catalog.Product{}
				}
				return writeJSON(out, filtered)
			}

			store, err := e.selection(ctx)
			if err != nil {
				return err
			}
			printProducts(out, filtered, store)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only show this category")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	return cmd
}

func newCategoriesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the catalog's categories",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := e.loader().Load(cmd.Context())
			if err != nil {
				return newCommandError("categories", "load", err)
			}
			out := cmd.OutOrStdout()
			for _, c := range catalog.Categories(products) {
				n := len(catalog.FilterByCategory(products, c))
				fmt.Fprintf(out, "%s  %s\n",
					util.PadWidth(c, 16),
					DimStyle.Render(fmt.Sprintf("%s, %d products", grid.CategoryLabel(c), n)))
			}
			return nil
		},
	}
}

func printProducts(w io.Writer, products []catalog.Product, store *selection.Store) {
	if len(products) == 0 {
		fmt.Fprintln(w, grid.MsgNoProducts)
		return
	}
	for _, p := range products {
		marker := styles.MarkerUnselected
		if store.Contains(p.ID) {
			marker = SuccessStyle.Render(styles.MarkerSelected)
		}
		fmt.Fprintf(w, "%s %s %s %s %s\n",
			marker,
			util.PadWidth(p.ID, 8),
			util.PadWidth(util.TruncateWidth(p.Name, 36), 36),
			util.PadWidth(util.TruncateWidth(p.Brand, 20), 20),
			DimStyle.Render(p.Category))
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// noArgs rejects positional arguments with a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return newUsageError("arguments", args[0], "this command takes no arguments", cmd.UseLine())
	}
	return nil
}

// exactArgs requires n positional arguments.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return newUsageError("arguments", fmt.Sprint(len(args)),
				fmt.Sprintf("expected %d argument(s)", n), cmd.UseLine())
		}
		return nil
	}
}
