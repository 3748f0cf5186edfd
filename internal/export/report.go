// Package export renders reports for download, archiving and the terminal.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"attendance-tracker/internal/domain"
)

// Format is an output encoding for a report.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatJSON, nil
	case FormatText, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", domain.NewValidationError("format", fmt.Sprintf("unknown format %q", s))
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Filename names a downloaded report, e.g. balance_2024-01-01_2024-01-31.xlsx.
func Filename(r *domain.Report, f Format) string {
	ext := string(f)
	if f == FormatText {
		ext = "txt"
	}
	return fmt.Sprintf("%s_%s_%s.%s", r.Mode, r.Range.From.Format(domain.DateLayout), r.Range.To.Format(domain.DateLayout), ext)
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r *domain.Report, f Format) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatText:
		return WriteText(w, r)
	case FormatJSON, "":
		return WriteJSON(w, r)
	}
	return fmt.Errorf("unsupported format %q", f)
}

// ReportDTO is the JSON shape of a report.
type ReportDTO struct {
	Mode string   `json:"mode"`
	From string   `json:"from"`
	To   string   `json:"to"`
	Unit string   `json:"unit"`
	Rows []RowDTO `json:"rows"`
}

type RowDTO struct {
	OwnerID string  `json:"owner_id"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
}

func ToDTO(r *domain.Report) ReportDTO {
	dto := ReportDTO{
		Mode: string(r.Mode),
		From: r.Range.From.Format(domain.DateLayout),
		To:   r.Range.To.Format(domain.DateLayout),
		Unit: r.Mode.Unit(),
		Rows: make([]RowDTO, len(r.Rows)),
	}
	for i, row := range r.Rows {
		dto.Rows[i] = RowDTO{OwnerID: row.OwnerID, Name: row.Name, Value: row.Value}
	}
	return dto
}

func WriteJSON(w io.Writer, r *domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToDTO(r))
}

func WriteText(w io.Writer, r *domain.Report) error {
	fmt.Fprintf(w, "%s  %s .. %s\n", r.Mode, r.Range.From.Format(domain.DateLayout), r.Range.To.Format(domain.DateLayout))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\t%s\n", r.Mode.Unit())
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.Name, formatValue(r.Mode, row.Value))
	}
	return tw.Flush()
}

const sheetName = "Report"

// WriteXLSX writes a single-sheet workbook: a title row, a header row, then
// one row per owner in report order.
func WriteXLSX(w io.Writer, r *domain.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	title := fmt.Sprintf("%s %s - %s", r.Mode, r.Range.From.Format(domain.DateLayout), r.Range.To.Format(domain.DateLayout))
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A2", &[]any{"Name", r.Mode.Unit()}); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "B2", bold); err != nil {
		return err
	}

	for i, row := range r.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &[]any{row.Name, row.Value}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "A", 24); err != nil {
		return err
	}

	return f.Write(w)
}

func formatValue(mode domain.ReportMode, v float64) string {
	if mode.Unit() == "count" {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
