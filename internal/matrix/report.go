package matrix

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"github.com/redbuttegarden/memberships/internal/domain/recommend"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// Sheet names of the XLSX report.
const (
	SheetMatrix = "Matrix"
	SheetLevels = "Levels"
	SheetMeta   = "Meta"
)

const (
	minColWidth = 10
	maxColWidth = 80
)

// Report is a built matrix plus what it was built from.
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	FixturePath string            `json:"fixture_path"`
	Levels      []recommend.Level `json:"-"`
	Rows        []Row             `json:"rows"`
}

// Write renders rep in format ("xlsx" or "json") to w.
func Write(w io.Writer, format string, rep Report) error {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return WriteXLSX(w, rep)
	case FormatJSON:
		return WriteJSON(w, rep)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

var matrixHeaders = []string{
	"cardholders", "guests", "tickets", "valid", "error", "match_type",
	"highlighted_id", "highlighted_name", "highlighted_price", "highlighted_ticket_allowance",
	"downsell_1_id", "downsell_1_name", "downsell_1_price",
	"downsell_2_id", "downsell_2_name", "downsell_2_price",
	"upsell_1_id", "upsell_1_name", "upsell_1_price",
	"upsell_2_id", "upsell_2_name", "upsell_2_price",
}

var levelHeaders = []string{
	"id", "name", "cardholders_included", "admissions_allowed",
	"member_sale_ticket_allowance", "price", "active",
}

// values flattens a row in matrixHeaders order. Absent cells are "".
func (r Row) values() []interface{} {
	out := []interface{}{r.Cardholders, r.Guests, r.Tickets, r.Valid, r.Error, r.MatchType}
	if h := r.Highlighted; h != nil {
		out = append(out, h.ID, h.Name, h.Price.StringFixed(2), h.TicketAllowance)
	} else {
		out = append(out, "", "", "", "")
	}
	for _, c := range r.Slots() {
		if c != nil {
			out = append(out, c.ID, c.Name, c.Price.StringFixed(2))
		} else {
			out = append(out, "", "", "")
		}
	}
	return out
}

func levelValues(l recommend.Level) []interface{} {
	return []interface{}{
		l.ID, l.Name, l.CardholdersIncluded, l.AdmissionsAllowed,
		l.TicketAllowance, l.Price.StringFixed(2), l.Active,
	}
}

// WriteXLSX writes rep as a workbook with Matrix, Levels and Meta sheets.
func WriteXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetMatrix); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	for _, name := range []string{SheetLevels, SheetMeta} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	rows := make([][]interface{}, len(rep.Rows))
	for i, r := range rep.Rows {
		rows[i] = r.values()
	}
	if err := writeTable(f, SheetMatrix, header, matrixHeaders, rows, true); err != nil {
		return err
	}

	levels := make([]recommend.Level, len(rep.Levels))
	copy(levels, rep.Levels)
	sort.Slice(levels, func(i, j int) bool { return levels[i].ID < levels[j].ID })
	lrows := make([][]interface{}, len(levels))
	for i, l := range levels {
		lrows[i] = levelValues(l)
	}
	if err := writeTable(f, SheetLevels, header, levelHeaders, lrows, false); err != nil {
		return err
	}

	meta := [][]interface{}{
		{"run_id", rep.RunID},
		{"generated_at", rep.GeneratedAt.UTC().Format(time.RFC3339)},
		{"fixture_path", rep.FixturePath},
		{"rows", len(rep.Rows)},
		{"levels", len(rep.Levels)},
		{"suggestion_slots", len(Row{}.Slots())},
		{"notes", "Matrix built from the selector form domain and the membership level fixture."},
	}
	for i, m := range meta {
		if err := setRow(f, SheetMeta, i+1, m); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// writeTable writes a bold centered header row, the data rows and a frozen
// first row. autosize sets each column to its longest value, clamped.
func writeTable(f *excelize.File, sheet string, style int, headers []string, rows [][]interface{}, autosize bool) error {
	hdr := make([]interface{}, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	if err := setRow(f, sheet, 1, hdr); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	for i, r := range rows {
		if err := setRow(f, sheet, i+2, r); err != nil {
			return err
		}
	}

	if autosize {
		for col, width := range columnWidths(headers, rows) {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWrite, err)
			}
			if err := f.SetColWidth(sheet, name, name, width); err != nil {
				return fmt.Errorf("%w: %w", ErrWrite, err)
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// columnWidths returns min(max(10, longest+2), 80) per column.
func columnWidths(headers []string, rows [][]interface{}) []float64 {
	widths := make([]float64, len(headers))
	for i, h := range headers {
		longest := len(h)
		for _, r := range rows {
			if i < len(r) {
				if n := len(fmt.Sprint(r[i])); n > longest {
					longest = n
				}
			}
		}
		widths[i] = float64(min(max(minColWidth, longest+2), maxColWidth))
	}
	return widths
}
