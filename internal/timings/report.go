package timings

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// UnitSummary is one row of the rendered HTML timings report.
type UnitSummary struct {
	Name     string
	Duration time.Duration
	Worker   int
	Fresh    bool
}

var reportTmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"percentage": func(a, b time.Duration) string {
		if b == 0 {
			return "0.00%"
		}
		return fmt.Sprintf("%.2f%%", 100*float64(a)/float64(b))
	},
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ferrocore build timings</title>
<style>
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
td.dur { text-align: right; }
tr.fresh { color: #888; }
</style>
</head>
<body>
<h1>Build timings</h1>
<p>Total wall time: {{ .Total }}, {{ len .Units }} units, {{ .Workers }} workers.</p>
<table>
<tr><th>Unit</th><th>Worker</th><th>Duration</th><th>% of total</th></tr>
{{ range .Units }}
<tr{{ if .Fresh }} class="fresh"{{ end }}>
  <td>{{ .Name }}</td>
  <td>{{ .Worker }}</td>
  <td class="dur">{{ .Duration }}</td>
  <td class="dur">{{ percentage .Duration $.Total }}</td>
</tr>
{{ end }}
</table>
</body>
</html>
`))

type reportData struct {
	Units   []UnitSummary
	Total   time.Duration
	Workers int
}

// WriteHTMLReport renders units as an HTML timings report (spec.md §4.4
// "timings: {html, json}").
func WriteHTMLReport(w io.Writer, units []UnitSummary, total time.Duration, workers int) error {
	return reportTmpl.Execute(w, reportData{Units: units, Total: total, Workers: workers})
}
