package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"renewals/internal/core"
)

// SheetName is the worksheet the workbook export writes to.
const SheetName = "Renewals"

const (
	fontFamily     = "Tahoma"
	fontSize       = 12
	monthFill      = "1F4E79"
	headerFill     = "9DC3E6"
	renewFill      = "D4F5D4"
	notRenewFill   = "FFD4D4"
	defaultColWide = 18
)

type styles struct {
	month, header, body, renew, notRenew int
}

func newStyles(f *excelize.File) (styles, error) {
	font := func(bold bool, color string) *excelize.Font {
		return &excelize.Font{Bold: bold, Family: fontFamily, Size: fontSize, Color: color}
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	defs := []*excelize.Style{
		{Font: font(true, "FFFFFF"), Fill: fill(monthFill), Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"}},
		{Font: font(true, "000000"), Fill: fill(headerFill)},
		{Font: font(false, "000000")},
		{Font: font(false, "000000"), Fill: fill(renewFill)},
		{Font: font(false, "000000"), Fill: fill(notRenewFill)},
	}
	ids := make([]int, len(defs))
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return styles{}, fmt.Errorf("create style: %w", err)
		}
		ids[i] = id
	}
	return styles{month: ids[0], header: ids[1], body: ids[2], renew: ids[3], notRenew: ids[4]}, nil
}

// WriteXLSX writes the month-sectioned table as a styled workbook. Month
// titles span every column and Status cells are tinted by value.
func WriteXLSX(w io.Writer, groups []core.DateGroup, loc *time.Location) error {
	sections := Sections(groups)
	if len(sections) == 0 {
		return ErrNoData
	}
	loc = locOrUTC(loc)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	statusCol, err := excelize.ColumnNumberToName(StatusColumn + 1)
	if err != nil {
		return err
	}

	row := 1
	for i, s := range sections {
		if i > 0 {
			row += sectionGap
		}

		first, last := fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row)
		if err := f.SetCellValue(SheetName, first, s.Label); err != nil {
			return err
		}
		if err := f.MergeCell(SheetName, first, last); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, first, last, st.month); err != nil {
			return err
		}
		row++

		header := make([]any, len(Columns))
		for c, name := range Columns {
			header[c] = name
		}
		if err := writeRow(f, row, header, st.header, lastCol); err != nil {
			return err
		}
		row++

		for _, r := range s.Rows {
			cells := r.Strings(loc)
			values := make([]any, len(cells))
			for c, v := range cells {
				values[c] = v
			}
			values[StatusColumn-1] = r.Record.NumberOfQuotations
			if err := writeRow(f, row, values, st.body, lastCol); err != nil {
				return err
			}
			statusStyle := st.renew
			if r.Record.EffectiveStatus() == core.StatusNotRenew {
				statusStyle = st.notRenew
			}
			cell := fmt.Sprintf("%s%d", statusCol, row)
			if err := f.SetCellStyle(SheetName, cell, cell, statusStyle); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SetColWidth(SheetName, "A", lastCol, defaultColWide); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any, style int, lastCol string) error {
	first := fmt.Sprintf("A%d", row)
	if err := f.SetSheetRow(SheetName, first, &values); err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, first, fmt.Sprintf("%s%d", lastCol, row), style)
}
