// Package exporter serializes an export bundle into the two-sheet workbook
// consumed by the sales team: sheet one the date-filtered activity export,
// sheet two the full contact roster for the same account selection.
package exporter

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/accounts-cli/internal/model"
)

const (
	sheetActivities = "Activities"
	sheetContacts   = "Contacts"

	// naiveTimestampLayout has no zone designator; the workbook format
	// cannot represent zone-aware timestamps.
	naiveTimestampLayout = "2006-01-02 15:04:05"
)

// Write serializes the bundle as an xlsx workbook to w.
func Write(bundle *model.ExportBundle, w io.Writer) error {
	f, err := build(bundle)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "exporter: write workbook")
}

// WriteFile serializes the bundle as an xlsx workbook at path.
func WriteFile(bundle *model.ExportBundle, path string) error {
	f, err := build(bundle)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "exporter: save workbook %s", path)
}

// DefaultFilename names an export artifact inside dir by its bundle ID.
func DefaultFilename(dir, bundleID string) string {
	return filepath.Join(dir, fmt.Sprintf("activity_export_%s.xlsx", bundleID))
}

func build(bundle *model.ExportBundle) (*xlsx.File, error) {
	f := xlsx.NewFile()
	if err := addSheet(f, sheetActivities, bundle.Activities); err != nil {
		return nil, err
	}
	if err := addSheet(f, sheetContacts, bundle.Contacts); err != nil {
		return nil, err
	}
	return f, nil
}

func addSheet(f *xlsx.File, name string, rs *model.Rowset) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "exporter: add sheet %s", name)
	}
	if rs == nil {
		return nil
	}

	header := sheet.AddRow()
	for _, col := range rs.Columns {
		header.AddCell().SetString(col)
	}

	for _, row := range rs.Rows {
		r := sheet.AddRow()
		for _, col := range rs.Columns {
			r.AddCell().SetString(formatCell(row[col]))
		}
	}
	return nil
}

// formatCell renders a cell for the workbook. Timestamps are already
// zone-naive when the bundle arrives; format them without a designator.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(naiveTimestampLayout)
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
