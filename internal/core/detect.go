package core

// detect.go implements the separator detection loop.
//
// Every candidate parses the same comment-stripped lines. Each parse yields
// an explicit Attempt; failures are recorded on the attempt and never abort
// detection. Qualified tables (at least MinColumns columns and MinRows rows)
// are scored as columns*10 + rows and the first strictly-highest score wins.
// When nothing qualifies, a single fallback parse with an inferred separator
// runs without any shape requirement.

import (
	"fmt"
	"log/slog"
)

// Score is the heuristic quality of a table shape. Wider tables dominate;
// row count breaks ties between equally wide tables.
func Score(columns, rows int) int {
	return columns*10 + rows
}

// Qualifies reports whether a table shape may take part in scoring.
func Qualifies(columns, rows int) bool {
	return columns >= MinColumns && rows >= MinRows
}

// Detector runs the candidate loop. The zero value is not usable; use
// NewDetector or the package-level Detect.
type Detector struct {
	candidates []Candidate
	sniffLines int
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithCandidates overrides the candidate list. Order is priority order.
func WithCandidates(c ...Candidate) DetectorOption {
	return func(d *Detector) {
		d.candidates = append([]Candidate(nil), c...)
	}
}

// WithSniffLines sets how many lines the fallback inspects.
func WithSniffLines(n int) DetectorOption {
	return func(d *Detector) {
		if n > 0 {
			d.sniffLines = n
		}
	}
}

// NewDetector creates a Detector with the default candidates.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		candidates: DefaultCandidates(),
		sniffLines: DefaultSniffLines,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDetector = NewDetector()

// Detect runs the default detector on raw bytes.
func Detect(raw []byte) (*Detection, error) {
	return defaultDetector.Detect(raw)
}

// Detect decodes raw, tries every candidate and returns the best table.
// The only error is the fallback failing, wrapped in ErrNoTable.
// Detect holds no state and is safe for concurrent use.
func (d *Detector) Detect(raw []byte) (*Detection, error) {
	text := Decode(raw)
	lines := contentLines(text)

	var (
		best     *Table
		bestCand Candidate
		bestSc   int
		found    bool
	)
	attempts := make([]Attempt, 0, len(d.candidates)+1)

	for _, cand := range d.candidates {
		t, err := parseLines(linesFor(text, lines, cand), cand)
		a := newAttempt(cand, t, err)
		attempts = append(attempts, a)

		if err != nil {
			slog.Debug("detect: candidate failed", "candidate", cand.Name, "error", err)
			continue
		}
		if !a.Qualified {
			continue
		}
		if !found || a.Score > bestSc {
			best, bestCand, bestSc, found = t, cand, a.Score, true
		}
	}

	if found {
		typeColumns(best)
		return &Detection{
			Table:     best,
			Label:     bestCand.Label,
			Candidate: bestCand.Name,
			Score:     bestSc,
			Attempts:  attempts,
		}, nil
	}

	cand := inferredCandidate(InferSeparator(lines, d.sniffLines))
	t, err := parseLines(linesFor(text, lines, cand), cand)
	attempts = append(attempts, newAttempt(cand, t, err))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTable, err)
	}

	typeColumns(t)
	return &Detection{
		Table:     t,
		Label:     cand.Label,
		Candidate: cand.Name,
		Score:     Score(t.NumColumns(), t.NumRows()),
		Fallback:  true,
		Attempts:  attempts,
	}, nil
}

// linesFor picks the content lines a candidate parses. Literal separators
// go through encoding/csv, so their lines keep quoted multi-line fields
// intact.
func linesFor(text string, plain []string, cand Candidate) []string {
	if cand.Kind == SepLiteral {
		return recordLines(text, cand.Sep)
	}
	return plain
}

// newAttempt summarises one parse result.
func newAttempt(cand Candidate, t *Table, err error) Attempt {
	a := Attempt{Candidate: cand, Name: cand.Name, Label: cand.Label}
	if err != nil {
		a.Err = err.Error()
		return a
	}
	a.Columns = t.NumColumns()
	a.Rows = t.NumRows()
	a.Qualified = Qualifies(a.Columns, a.Rows)
	if a.Qualified {
		a.Score = Score(a.Columns, a.Rows)
	}
	return a
}
