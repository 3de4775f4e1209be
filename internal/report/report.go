// Package report assembles the per-call HTML report.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

type Meta struct {
	CallID         string
	Representative string
	Generated      time.Time
}

type data struct {
	Meta
	Issue      string
	Resolution string
	Charts     []string
}

var tmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Call Report — {{.CallID}}</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2em auto; color: #222; }
h1 { border-bottom: 2px solid #444; padding-bottom: .3em; }
.meta { color: #666; margin-bottom: 2em; }
section { margin-bottom: 2em; }
img { max-width: 100%; border: 1px solid #ddd; }
.empty { color: #999; font-style: italic; }
</style>
</head>
<body>
<h1>Call Report: {{.CallID}}</h1>
<p class="meta">Representative: {{.Representative}} &middot; Generated: {{.Generated.Format "2006-01-02 15:04:05 MST"}}</p>

<section>
<h2>Customer Issue</h2>
{{if .Issue}}<p>{{.Issue}}</p>{{else}}<p class="empty">Issue summary unavailable.</p>{{end}}
</section>

<section>
<h2>Resolution</h2>
{{if .Resolution}}<p>{{.Resolution}}</p>{{else}}<p class="empty">Resolution summary unavailable.</p>{{end}}
</section>

<section>
<h2>Charts</h2>
{{range .Charts}}<p><img src="{{.}}" alt="chart"></p>{{else}}<p class="empty">No charts generated.</p>{{end}}
</section>
</body>
</html>
`))

// Build writes the report under <outRoot>/reports/html/<call_id>.html and
// returns the written path. Chart paths are rewritten relative to the
// report file so the HTML stays portable alongside its images.
func Build(meta Meta, issue, resolution string, charts []string, outRoot string) (string, error) {
	dir := filepath.Join(outRoot, "reports", "html")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, meta.CallID+".html")

	d := data{Meta: meta, Issue: issue, Resolution: resolution}
	for _, c := range charts {
		if rel, err := filepath.Rel(dir, c); err == nil {
			d.Charts = append(d.Charts, filepath.ToSlash(rel))
		} else {
			d.Charts = append(d.Charts, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, d); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return path, nil
}
