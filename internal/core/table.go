package core

// table.go defines the structured table returned by detection.
//
// A Table is always rectangular: every row carries exactly len(Columns)
// values. Cells are typed Values that can be a string, a number, or missing.

import (
	"encoding/json"
	"strconv"
)

// ValueKind identifies what a Value holds.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindString
	KindNumber
)

// Value is a single table cell.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{Kind: KindMissing} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue returns a numeric value.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// IsMissing reports whether v is the missing-value marker.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// String formats the value for display. Missing values render as "".
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON encodes strings as JSON strings, numbers as JSON numbers
// and missing values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON. Used when reading cached
// detections back.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Missing()
	case string:
		*v = StringValue(x)
	case float64:
		*v = NumberValue(x)
	default:
		*v = StringValue(string(data))
	}
	return nil
}

// Table is a rectangular table of named columns and typed rows.
type Table struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// NumRows returns the data row count (header excluded).
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Head returns a copy of the table limited to the first n rows.
// n <= 0 returns all rows.
func (t *Table) Head(n int) *Table {
	if t == nil {
		return nil
	}
	rows := t.Rows
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Value, len(rows)),
	}
	for i, row := range rows {
		out.Rows[i] = append([]Value(nil), row...)
	}
	return out
}

// StringRows returns every row formatted as display strings.
func (t *Table) StringRows() [][]string {
	if t == nil {
		return nil
	}
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		out[i] = cells
	}
	return out
}

// dropEmptyColumns removes every column whose values are all missing.
// A table without rows loses all of its columns.
func (t *Table) dropEmptyColumns() {
	keep := make([]int, 0, len(t.Columns))
	for c := range t.Columns {
		for _, row := range t.Rows {
			if !row[c].IsMissing() {
				keep = append(keep, c)
				break
			}
		}
	}
	if len(keep) == len(t.Columns) {
		return
	}

	cols := make([]string, len(keep))
	for i, c := range keep {
		cols[i] = t.Columns[c]
	}
	for r, row := range t.Rows {
		cells := make([]Value, len(keep))
		for i, c := range keep {
			cells[i] = row[c]
		}
		t.Rows[r] = cells
	}
	t.Columns = cols
}
