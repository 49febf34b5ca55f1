// Package templates renders the HTML pages of the detection UI. Components
// are written in .templ files and compiled with `templ generate`.
package templates

import (
	"strconv"

	"github.com/JonMunkholm/tabsniff/internal/core"
	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#0f172a}
header{background:#0f172a;color:#fff;padding:12px 24px}
header a{color:#fff;text-decoration:none;font-weight:600}
main{max-width:1100px;margin:24px auto;padding:0 24px}
section{background:#fff;border:1px solid #e2e8f0;border-radius:8px;padding:16px;margin-bottom:16px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #e2e8f0;padding:4px 8px;text-align:left}
th{background:#f1f5f9}
td.num{text-align:right;font-variant-numeric:tabular-nums}
td.na{color:#94a3b8;font-style:italic}
.muted{color:#64748b}
.alert{border:1px solid #fecaca;background:#fef2f2;color:#991b1b;padding:12px;border-radius:6px}
.badge{display:inline-block;background:#e0f2fe;color:#075985;border-radius:4px;padding:2px 6px;font-size:12px}
`

func detectionURL(id string) templ.SafeURL {
	return templ.URL("/detections/" + id)
}

func exportURL(id string) templ.SafeURL {
	return templ.URL("/api/detections/" + id + "/export")
}

// outcome summarises a candidate attempt for the candidates table.
func outcome(a core.Attempt) string {
	switch {
	case a.Err != "":
		return a.Err
	case a.Qualified:
		return "qualified"
	default:
		return "too small"
	}
}

// hiddenRows is how many rows of t a grid capped at limit leaves out.
func hiddenRows(t *core.Table, limit int) int {
	return t.NumRows() - t.Head(limit).NumRows()
}

func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n < unit:
		return strconv.FormatInt(n, 10) + " B"
	case n < unit*unit:
		return strconv.FormatFloat(float64(n)/unit, 'f', 1, 64) + " KB"
	default:
		return strconv.FormatFloat(float64(n)/(unit*unit), 'f', 1, 64) + " MB"
	}
}
