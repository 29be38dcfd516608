package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"renewals/internal/core"
)

// WriteCSV writes the month-sectioned table as comma separated text.
func WriteCSV(w io.Writer, groups []core.DateGroup, loc *time.Location) error {
	sections := Sections(groups)
	if len(sections) == 0 {
		return ErrNoData
	}
	loc = locOrUTC(loc)

	cw := csv.NewWriter(w)
	for i, s := range sections {
		if i > 0 {
			for j := 0; j < sectionGap; j++ {
				if err := cw.Write([]string{}); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
			}
		}
		if err := cw.Write([]string{s.Label}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		if err := cw.Write(Columns); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		for _, r := range s.Rows {
			if err := cw.Write(r.Strings(loc)); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
