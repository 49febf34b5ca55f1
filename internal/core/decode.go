package core

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Decode interprets raw bytes as UTF-8 text. Invalid byte sequences are
// replaced with U+FFFD and a leading byte order mark is dropped, so
// decoding never fails.
func Decode(raw []byte) string {
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		// Not expected: the UTF-8 decoder substitutes rather than failing.
		return strings.TrimPrefix(strings.ToValidUTF8(string(raw), "\uFFFD"), "\uFEFF")
	}
	return string(out)
}

// contentLines splits decoded text into lines and drops the ones that never
// take part in parsing: fully blank lines and lines whose first non-blank
// character is '#'. Line endings may be \n, \r\n or a bare \r.
func contentLines(text string) []string {
	lines := splitLines(text)
	kept := lines[:0]
	for _, line := range lines {
		if skippable(line) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

// recordLines is contentLines for a separator that honours double quotes.
// A line that continues a quoted field opened on an earlier line belongs to
// that field and is kept even when it is blank or starts with '#'.
func recordLines(text string, sep rune) []string {
	lines := splitLines(text)
	kept := lines[:0]
	open := false
	for _, line := range lines {
		if !open && skippable(line) {
			continue
		}
		kept = append(kept, line)
		open = quoteOpen(line, sep, open)
	}
	return kept
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func skippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// quoteOpen reports whether a quoted field is still open at the end of line,
// given whether one was open at its start. It follows encoding/csv with
// LazyQuotes: a quote opens a field only at field start, and inside a field
// only a quote followed by sep or the line end closes it.
func quoteOpen(line string, sep rune, open bool) bool {
	fieldStart := !open
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		next := i + size
		switch {
		case open && r == '"':
			if strings.HasPrefix(line[next:], `"`) {
				next++
				break
			}
			if next == len(line) || strings.HasPrefix(line[next:], string(sep)) {
				open = false
			}
		case !open && fieldStart && r == '"':
			open = true
		}
		fieldStart = !open && r == sep
		i = next
	}
	return open
}
