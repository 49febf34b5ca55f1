package core

// convert.go turns raw parsed fields into typed table values.
//
// The rules are intentionally narrow:
//   - A field is missing when it is blank or one of the common NA markers.
//   - A column becomes numeric only when every non-missing value is a plain
//     decimal or scientific-notation number.
//   - Everything else stays a string exactly as it appeared in the file.

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain numeric literal.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// naMarkers are field values read as missing, matched exactly.
var naMarkers = map[string]bool{
	"NA":       true,
	"N/A":      true,
	"n/a":      true,
	"NaN":      true,
	"nan":      true,
	"-NaN":     true,
	"-nan":     true,
	"NULL":     true,
	"null":     true,
	"None":     true,
	"<NA>":     true,
	"#N/A":     true,
	"#NA":      true,
	"#N/A N/A": true,
}

// IsMissingField reports whether a raw field should be read as missing.
// The match is exact: a field of spaces is a string value.
func IsMissingField(s string) bool {
	return s == "" || naMarkers[s]
}

// ParseNumber parses a plain numeric literal. Currency symbols, thousands
// separators and hex or infinity spellings are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// rawValue converts one parsed field into an untyped cell: missing or string.
func rawValue(s string) Value {
	if IsMissingField(s) {
		return Missing()
	}
	return StringValue(s)
}

// typeColumns converts every column whose values are all numeric into
// numbers. Columns with no values at all are left untouched.
func typeColumns(t *Table) {
	for c := range t.Columns {
		numeric := false
		for _, row := range t.Rows {
			v := row[c]
			if v.IsMissing() {
				continue
			}
			if _, ok := ParseNumber(v.Str); !ok {
				numeric = false
				break
			}
			numeric = true
		}
		if !numeric {
			continue
		}
		for _, row := range t.Rows {
			if row[c].IsMissing() {
				continue
			}
			f, _ := ParseNumber(row[c].Str)
			row[c] = NumberValue(f)
		}
	}
}
