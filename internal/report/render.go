package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	"github.com/smukkama/farm-report/internal/atomicfile"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>IoT Regime Report</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; }
td, th { padding: 4px 12px; border-bottom: 1px solid #ddd; text-align: left; }
.swatch { display: inline-block; width: 14px; height: 14px; border-radius: 2px; vertical-align: middle; }
</style>
</head>
<body>
<h1>Automatic IoT Report</h1>
<p>Generated: {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>
<p>Run: <code>{{.RunID}}</code> &middot; Samples analyzed: {{.TotalSamples}}</p>

<h2>Cluster Analysis</h2>
<img src="{{.ScatterChart.Name}}" width="600" alt="Cluster scatter chart">

<table>
<tr><th>Pattern</th><th>Color</th><th>Samples</th><th>Temperature (°C)</th><th>Illumination (lux)</th></tr>
{{- range .Clusters}}
<tr>
<td>Pattern {{.Pattern}}</td>
<td><span class="swatch" style="background: {{.Color | css}}"></span> {{.Color}}</td>
<td>{{.MemberCount}}</td>
{{- if .Valid}}
<td>{{printf "%.1f" .Temperature}}</td><td>{{printf "%.0f" .Illumination}}</td>
{{- else}}
<td>n/a</td><td>n/a</td>
{{- end}}
</tr>
{{- end}}
</table>

<h2>Interpretation</h2>
{{- if .Interpretations}}
<ul>
{{- range .Interpretations}}
<li><strong>{{.Label}}</strong>: {{.Narrative}}</li>
{{- end}}
</ul>
{{- else}}
<p>No samples were available in this window.</p>
{{- end}}

<h2>Trends</h2>
<img src="{{.TrendChart.Name}}" width="600" alt="Trend chart">
</body>
</html>
`

var page = template.Must(template.New("report").Funcs(template.FuncMap{
	"css": func(s string) template.CSS { return template.CSS(s) },
}).Parse(pageTemplate))

// Render writes the report as a standalone HTML document
func Render(w io.Writer, r *Report) error {
	if err := page.Execute(w, r); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// Writer persists a finished report
type Writer interface {
	Write(r *Report) (string, error)
}

// FileWriter renders the report fully in memory and then replaces the
// target file atomically, so a failed run never leaves a partial report.
type FileWriter struct {
	Dir  string
	Name string
}

// NewFileWriter creates a writer for dir/name
func NewFileWriter(dir, name string) *FileWriter {
	return &FileWriter{Dir: dir, Name: name}
}

// Write returns the path of the written report
func (fw *FileWriter) Write(r *Report) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return "", err
	}

	path := filepath.Join(fw.Dir, fw.Name)
	if err := atomicfile.Write(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
