package core

// parse.go splits content lines into records for one candidate and builds
// a rectangular table from them.
//
// Policy for ragged input:
//   - rows shorter than the header are padded with missing values
//   - rows longer than the header fail the whole parse with a
//     *FieldCountError; the detector treats that as a failed candidate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseLines parses already comment-stripped lines with the candidate's
// separator and returns a cleaned table: empty columns are dropped, values
// are not yet typed.
func parseLines(lines []string, cand Candidate) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	switch cand.Kind {
	case SepWhitespace:
		records = splitWhitespace(lines)
	default:
		records, err = splitLiteral(lines, cand.Sep)
		if err != nil {
			return nil, err
		}
	}

	t, err := buildTable(records)
	if err != nil {
		return nil, err
	}
	t.dropEmptyColumns()
	return t, nil
}

// splitWhitespace treats every run of whitespace as one separator.
// Leading and trailing whitespace never produce empty fields.
func splitWhitespace(lines []string) [][]string {
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, strings.Fields(line))
	}
	return records
}

// splitLiteral reads lines with encoding/csv using sep as the field
// separator. Double-quoted fields are honoured; stray quotes are kept.
func splitLiteral(lines []string, sep rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildTable treats the first record as the header and the rest as data.
func buildTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	header := headerNames(records[0])
	t := &Table{
		Columns: header,
		Rows:    make([][]Value, 0, len(records)-1),
	}

	for i, rec := range records[1:] {
		if len(rec) > len(header) {
			return nil, &FieldCountError{Line: i + 2, Expected: len(header), Got: len(rec)}
		}
		row := make([]Value, len(header))
		for c := range row {
			if c < len(rec) {
				row[c] = rawValue(rec[c])
			} else {
				row[c] = Missing()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// headerNames trims header cells, names blank ones "Unnamed: <index>" and
// suffixes repeats with ".1", ".2", ... so every column name is unique.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if seen[name] {
			for n := 1; ; n++ {
				alt := name + "." + strconv.Itoa(n)
				if !seen[alt] {
					name = alt
					break
				}
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
