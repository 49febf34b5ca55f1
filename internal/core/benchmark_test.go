package core

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// generateDelimited builds a header plus rows lines with cols columns,
// joined by sep. Every third column is numeric.
func generateDelimited(rows, cols int, sep string) []byte {
	var buf bytes.Buffer
	header := make([]string, cols)
	for c := range header {
		header[c] = fmt.Sprintf("col%d", c)
	}
	buf.WriteString(strings.Join(header, sep))
	buf.WriteByte('\n')

	cells := make([]string, cols)
	for r := 0; r < rows; r++ {
		for c := range cells {
			if c%3 == 0 {
				cells[c] = fmt.Sprintf("%d.%02d", r*c, r%100)
			} else {
				cells[c] = fmt.Sprintf("v%d_%d", r, c)
			}
		}
		buf.WriteString(strings.Join(cells, sep))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseNumber covers the per-cell numeric check run while typing
// columns.
func BenchmarkParseNumber(b *testing.B) {
	testCases := []string{"123", "-456.78", "1e10", ".5", "abc", "NaN", ""}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseNumber(tc)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	raw := append([]byte("\xef\xbb\xbf"), generateDelimited(1000, 8, ",")...)
	b.SetBytes(int64(len(raw)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = contentLines(Decode(raw))
	}
}

// ============================================================================
// Detection Benchmarks
// ============================================================================

func BenchmarkDetect(b *testing.B) {
	cases := []struct {
		name string
		sep  string
	}{
		{"comma", ","},
		{"semicolon", ";"},
		{"tab", "\t"},
		{"whitespace", " "},
	}

	for _, tc := range cases {
		raw := generateDelimited(1000, 8, tc.sep)
		b.Run(tc.name, func(b *testing.B) {
			b.SetBytes(int64(len(raw)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Detect(raw); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkDetect_Sizes shows how detection scales with row count.
func BenchmarkDetect_Sizes(b *testing.B) {
	for _, rows := range []int{10, 1000, 10000} {
		raw := generateDelimited(rows, 10, ",")
		b.Run(fmt.Sprintf("rows=%d", rows), func(b *testing.B) {
			b.SetBytes(int64(len(raw)))
			for i := 0; i < b.N; i++ {
				if _, err := Detect(raw); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkInferSeparator covers the fallback sniff over the sample window.
func BenchmarkInferSeparator(b *testing.B) {
	lines := contentLines(Decode(generateDelimited(100, 6, "|")))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		InferSeparator(lines, 20)
	}
}
