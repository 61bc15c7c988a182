package activity

import (
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM lets spreadsheet tools detect the encoding of the export.
const utf8BOM = "\ufeff"

// csvHeader is the fixed column order of the activity export. Users
// script against it, so columns are only ever appended.
var csvHeader = []string{"Date", "User", "Action", "Table", "Details"}

// WriteCSV writes the rendered feed items as a UTF-8 CSV with a BOM and a
// header row, one row per item.
func WriteCSV(w io.Writer, items []FeedItem) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("writing csv bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, it := range items {
		row := []string{it.When, it.Actor, it.ActionLabel, it.CollectionLabel, it.Description.Summary}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", it.Record.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
