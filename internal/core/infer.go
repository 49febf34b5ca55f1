package core

import "strings"

// DefaultSniffLines is how many content lines InferSeparator inspects.
const DefaultSniffLines = 20

// inferable lists the separators the fallback may choose, in tie-break order.
var inferable = []rune{',', ';', '\t'}

// InferSeparator picks the fallback separator: the most frequent of comma,
// semicolon and tab across the first n lines. Ties go to the earlier
// separator in that list; comma is returned when none of them occur.
func InferSeparator(lines []string, n int) rune {
	if n > 0 && len(lines) > n {
		lines = lines[:n]
	}

	best, bestCount := ',', 0
	for _, sep := range inferable {
		count := 0
		for _, line := range lines {
			count += strings.Count(line, string(sep))
		}
		if count > bestCount {
			best, bestCount = sep, count
		}
	}
	return best
}

// inferredCandidate builds the fallback candidate for a separator.
func inferredCandidate(sep rune) Candidate {
	return Candidate{Name: "inferred", Label: LabelInferred, Kind: SepLiteral, Sep: sep}
}
