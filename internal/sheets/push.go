package sheets

import (
	"context"
	"fmt"
	"time"

	"renewals/internal/core"
	"renewals/internal/export"
)

// Values builds the pushed table: the column header row, then one row per
// record, newest group first.
func Values(groups []core.DateGroup, loc *time.Location) [][]any {
	if loc == nil {
		loc = time.UTC
	}
	header := make([]any, len(export.Columns))
	for i, c := range export.Columns {
		header[i] = c
	}
	out := [][]any{header}
	for _, row := range export.FlatRows(groups, loc) {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		out = append(out, cells)
	}
	return out
}

// TargetRange is the A1 range covering rows values in sheetName.
func TargetRange(sheetName string, rows int) string {
	last := string(rune('A' + len(export.Columns) - 1))
	return fmt.Sprintf("%s!A1:%s%d", sheetName, last, rows)
}

// Push replaces the contents of sheetName with the record table and returns
// the number of records written.
func Push(ctx context.Context, w RangeWriter, sheetName string, groups []core.DateGroup, loc *time.Location) (int, error) {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	values := Values(groups, loc)
	if err := w.Clear(ctx, sheetName); err != nil {
		return 0, fmt.Errorf("clear %s: %w", sheetName, err)
	}
	rng := TargetRange(sheetName, len(values))
	if err := w.Update(ctx, rng, values); err != nil {
		return 0, fmt.Errorf("update %s: %w", rng, err)
	}
	return len(values) - 1, nil
}
