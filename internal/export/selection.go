// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/util"
)

// =============================================================================
// SELECTION EXPORT
// =============================================================================

// selectionSheet is the worksheet name used for XLSX output.
const selectionSheet = "Selection"

var selectionHeader = []string{"#", "ID", "Name", "Brand", "Category", "Description", "Image"}

func selectionRow(i int, p catalog.Product) []string {
	return []string{fmt.Sprint(i + 1), p.ID, p.Name, p.Brand, p.Category, p.Description, p.Image}
}

// SelectionCSV renders products as CSV with a header row.
func SelectionCSV(products []catalog.Product) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(selectionHeader); err != nil {
		return nil, err
	}
	for i, p := range products {
		if err := w.Write(selectionRow(i, p)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// SelectionXLSX renders products as a single-sheet workbook.
func SelectionXLSX(products []catalog.Product) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", selectionSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := make([][]string, 0, len(products)+1)
	rows = append(rows, selectionHeader)
	for i, p := range products {
		rows = append(rows, selectionRow(i, p))
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(selectionSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(selectionHeader))
	if err := f.SetCellStyle(selectionSheet, "A1", lastCol+"1", style); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(selectionSheet, "C", "C", 40); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(selectionSheet, "F", "F", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSelection writes products to path as csv or xlsx.
func WriteSelection(products []catalog.Product, format, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "csv":
		data, err = SelectionCSV(products)
	case "xlsx", "excel":
		data, err = SelectionXLSX(products)
	default:
		return fmt.Errorf("unknown selection format %q (want csv or xlsx)", format)
	}
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
