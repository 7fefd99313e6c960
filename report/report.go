// Package report exports a session's analyses as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/paperlens"
	"github.com/brunobiangulo/paperlens/mindmap"
)

// Sheet names.
const (
	SummarySheet = "Summary"
	MindMapSheet = "Mind Map"
)

// Write renders snap as a workbook: a summary sheet, the mind-map outline
// with its relationships, and one sheet per completed text analysis.
func Write(w io.Writer, snap paperlens.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeSummary(f, snap, bold); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if snap.MindMap != nil {
		if err := writeMindMap(f, snap.MindMap, bold); err != nil {
			return fmt.Errorf("writing mind map: %w", err)
		}
	}

	for _, k := range []paperlens.Kind{paperlens.KindInsights, paperlens.KindAchievements, paperlens.KindResearchIdeas} {
		r := snap.Result(k)
		if r.Status != paperlens.StatusComplete {
			continue
		}
		if err := writeText(f, k.Title(), r.Content, bold); err != nil {
			return fmt.Errorf("writing %s: %w", k, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, snap paperlens.Snapshot, bold int) error {
	rows := [][]any{
		{"Session", snap.ID},
		{"Created", snap.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
		{"File", snap.Filename},
	}
	if snap.PDF != nil {
		rows = append(rows, []any{"Pages", snap.PDF.Pages})
		if snap.PDF.Title != "" {
			rows = append(rows, []any{"Title", snap.PDF.Title})
		}
	}
	if snap.MindMap != nil {
		rows = append(rows,
			[]any{"Paper title", snap.MindMap.Metadata.PaperTitle},
			[]any{"Main topic", snap.MindMap.Metadata.MainTopic},
		)
	}
	rows = append(rows, nil)

	header := len(rows) + 1
	rows = append(rows, []any{"Analysis", "Status", "Error"})
	for _, r := range snap.Results {
		rows = append(rows, []any{r.Kind.Title(), string(r.Status), r.Error})
	}

	if err := setRows(f, SummarySheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "C", 40); err != nil {
		return err
	}
	return boldRow(f, SummarySheet, header, 3, bold)
}

func writeMindMap(f *excelize.File, m *mindmap.MindMap, bold int) error {
	if _, err := f.NewSheet(MindMapSheet); err != nil {
		return err
	}

	rows := [][]any{{"Level", "ID", "Label", "Type"}}
	for _, l := range mindmap.Outline(m) {
		rows = append(rows, []any{l.Depth, l.ID, strings.Repeat("  ", l.Depth) + l.Label, string(l.Type)})
	}
	relHeader := 0
	if len(m.Relationships) > 0 {
		rows = append(rows, nil)
		relHeader = len(rows) + 1
		rows = append(rows, []any{"From", "To", "Label"})
		for _, r := range m.Relationships {
			rows = append(rows, []any{r.From, r.To, r.Label})
		}
	}

	if err := setRows(f, MindMapSheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(MindMapSheet, "C", "C", 60); err != nil {
		return err
	}
	if err := boldRow(f, MindMapSheet, 1, 4, bold); err != nil {
		return err
	}
	if relHeader > 0 {
		return boldRow(f, MindMapSheet, relHeader, 3, bold)
	}
	return nil
}

func writeText(f *excelize.File, sheet, content string, bold int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{sheet}}
	for _, line := range strings.Split(content, "\n") {
		rows = append(rows, []any{line})
	}
	if err := setRows(f, sheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 100); err != nil {
		return err
	}
	return boldRow(f, sheet, 1, 1, bold)
}

// setRows writes rows starting at A1. A nil row is left blank.
func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
