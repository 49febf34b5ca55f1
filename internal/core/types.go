// Package core provides the table detection logic for delimited-text uploads.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"errors"
	"fmt"
)

// SeparatorKind distinguishes literal single-character separators from the
// whitespace-run separator.
type SeparatorKind int

const (
	SepLiteral SeparatorKind = iota
	SepWhitespace
)

// Candidate is one separator hypothesis tried by the detector.
type Candidate struct {
	Name  string        // Short identifier: "comma", "tab"
	Label string        // Human-readable label returned to callers
	Kind  SeparatorKind // Literal character or whitespace run
	Sep   rune          // Separator character when Kind is SepLiteral
}

// Labels returned with a detection.
const (
	LabelComma      = "comma (,)"
	LabelSemicolon  = "semicolon (;)"
	LabelTab        = `tab (\t)`
	LabelWhitespace = "whitespace"
	LabelInferred   = "inferred"
)

// Candidates are evaluated in this order. On equal scores the earlier
// candidate wins.
var (
	CandidateComma      = Candidate{Name: "comma", Label: LabelComma, Kind: SepLiteral, Sep: ','}
	CandidateSemicolon  = Candidate{Name: "semicolon", Label: LabelSemicolon, Kind: SepLiteral, Sep: ';'}
	CandidateTab        = Candidate{Name: "tab", Label: LabelTab, Kind: SepLiteral, Sep: '\t'}
	CandidateWhitespace = Candidate{Name: "whitespace", Label: LabelWhitespace, Kind: SepWhitespace}
)

// DefaultCandidates returns the fixed candidate list in priority order.
func DefaultCandidates() []Candidate {
	return []Candidate{CandidateComma, CandidateSemicolon, CandidateTab, CandidateWhitespace}
}

// Minimum shape for a candidate table to take part in scoring.
const (
	MinColumns = 2
	MinRows    = 1
)

// Errors returned by parsing and detection.
var (
	// ErrEmptyInput is returned when no header line survives comment and
	// blank-line stripping.
	ErrEmptyInput = errors.New("empty file: no columns to parse")

	// ErrNoTable wraps the fallback failure, the only error Detect returns.
	ErrNoTable = errors.New("could not parse file as a table")
)

// FieldCountError reports a data row with more fields than the header.
type FieldCountError struct {
	Line     int // 1-based position among the parsed (non-comment, non-blank) lines
	Expected int
	Got      int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("invalid csv: expected %d fields in line %d, saw %d", e.Expected, e.Line, e.Got)
}

// Attempt records how one candidate fared. Exactly one of Err or a shape
// is meaningful: failed attempts have zero Columns and Rows.
type Attempt struct {
	Candidate Candidate `json:"-"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Columns   int       `json:"columns"`
	Rows      int       `json:"rows"`
	Score     int       `json:"score"`
	Qualified bool      `json:"qualified"`
	Err       string    `json:"error,omitempty"`
}

// Detection is the outcome of Detect: the winning table plus its label.
type Detection struct {
	Table     *Table    `json:"table"`
	Label     string    `json:"label"`
	Candidate string    `json:"candidate"`
	Score     int       `json:"score"`
	Fallback  bool      `json:"fallback"`
	Attempts  []Attempt `json:"attempts"`
}
