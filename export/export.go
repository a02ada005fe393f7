// Package export writes accepted triplets to spreadsheet and CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mvidoni/sociograph/triplet"
)

const sheetName = "Triplets"

var header = []string{
	"Chunk", "Role", "Practice", "Original Practice", "Score",
	"Counterrole", "Context", "Confidence", "Entities",
}

// WriteXLSX writes triplets to an Excel workbook with a bold header row.
func WriteXLSX(path string, triplets []triplet.Validated) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for col, name := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheetName, "A1", endCell, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	widths := make([]int, len(header))
	for i, name := range header {
		widths[i] = len(name)
	}
	for i, t := range triplets {
		row := tripletRow(t)
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("writing row %d: %w", i+1, err)
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}
	}

	// Width tracks the longest cell, capped so long contexts stay readable.
	for col := range header {
		name, _ := excelize.ColumnNumberToName(col + 1)
		w := float64(widths[col]) + 2
		if w > 60 {
			w = 60
		}
		if err := f.SetColWidth(sheetName, name, name, w); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// WriteCSV writes triplets as CSV with the same columns as WriteXLSX.
func WriteCSV(w io.Writer, triplets []triplet.Validated) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range triplets {
		if err := cw.Write(tripletRow(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func tripletRow(t triplet.Validated) []string {
	score := ""
	if t.PracticeScore != 0 {
		score = strconv.FormatFloat(t.PracticeScore, 'f', 3, 64)
	}
	confidence := ""
	if t.Confidence != 0 {
		confidence = strconv.FormatFloat(t.Confidence, 'f', 2, 64)
	}
	return []string{
		strconv.Itoa(t.ChunkID),
		t.Role,
		t.Practice,
		t.PracticeOriginal,
		score,
		t.Counterrole,
		t.Context,
		confidence,
		formatEntities(t.Entities),
	}
}

func formatEntities(entities []triplet.Entity) string {
	if len(entities) == 0 {
		return ""
	}
	parts := make([]string, len(entities))
	for i, e := range entities {
		parts[i] = fmt.Sprintf("%s (%s)", e.Text, e.Label)
	}
	return strings.Join(parts, "; ")
}
