package model

import "time"

// Rowset is a schema-flexible query result: an ordered column list plus one
// map per row. Firmographics have no fixed schema, so the store returns
// whatever columns the reporting table carries.
type Rowset struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// NewRowset creates an empty Rowset with the given column order.
func NewRowset(columns []string) *Rowset {
	return &Rowset{Columns: columns, Rows: []map[string]any{}}
}

// Empty reports whether the Rowset has no rows.
func (r *Rowset) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// DropEmptyColumns returns a copy with every column removed whose values are
// all nil or empty string.
func (r *Rowset) DropEmptyColumns() *Rowset {
	if r == nil {
		return nil
	}
	kept := make([]string, 0, len(r.Columns))
	for _, col := range r.Columns {
		empty := true
		for _, row := range r.Rows {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			empty = false
			break
		}
		if !empty {
			kept = append(kept, col)
		}
	}

	out := NewRowset(kept)
	for _, row := range r.Rows {
		nr := make(map[string]any, len(kept))
		for _, col := range kept {
			nr[col] = row[col]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// MapValues returns a copy with fn applied to every cell value.
func (r *Rowset) MapValues(fn func(col string, v any) any) *Rowset {
	if r == nil {
		return nil
	}
	out := NewRowset(append([]string(nil), r.Columns...))
	for _, row := range r.Rows {
		nr := make(map[string]any, len(row))
		for k, v := range row {
			nr[k] = fn(k, v)
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// StripZones returns a copy with every time-typed cell replaced by its naive
// wall-clock equivalent (same clock reading, UTC location, zone discarded).
// Spreadsheet formats cannot represent zone-aware timestamps.
func (r *Rowset) StripZones() *Rowset {
	return r.MapValues(func(_ string, v any) any {
		t, ok := v.(time.Time)
		if !ok {
			return v
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	})
}
