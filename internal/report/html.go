package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/v0xg/vistest/internal/action"
	"github.com/v0xg/vistest/internal/run"
)

type stepView struct {
	Number      int
	Kind        string
	Description string
	URL         string
	Element     string
	Text        string
	Expected    string
	ExpectedRow map[string]string
	Pending     bool
	Success     bool
	Message     string
	Error       string
	Screenshot  string // thumbnail, relative to the HTML file
	FullShot    string // original screenshot, relative to the HTML file
}

type reportView struct {
	Name        string
	Description string
	Status      string
	StatusUpper string
	Progress    string
	Error       string
	Steps       []stepView
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Test Report: {{.Name}}</title>
<style>
  body { font-family: Arial, sans-serif; margin: 20px; }
  h1 { color: #333; }
  .status-passed { color: green; }
  .status-failed { color: red; }
  .step { margin-bottom: 20px; border: 1px solid #ddd; padding: 10px; border-radius: 5px; }
  .step-header { display: flex; justify-content: space-between; align-items: center; }
  .step-success { color: green; }
  .step-failure { color: red; }
  .step-pending { color: #888; }
  .step-details { margin-top: 10px; }
  .screenshot { max-width: 100%; border: 1px solid #ccc; margin-top: 10px; }
</style>
</head>
<body>
<h1>Test Report: {{.Name}}</h1>
<p><strong>Status:</strong> <span class="status-{{.Status}}">{{.StatusUpper}}</span></p>
<p><strong>Progress:</strong> {{.Progress}}</p>
<p><strong>Description:</strong> {{.Description}}</p>
{{if .Error}}<p class="status-failed"><strong>Error:</strong> {{.Error}}</p>{{end}}
<h2>Steps</h2>
<div class="steps">
{{range .Steps}}
  <div class="step">
    <div class="step-header">
      <h3>Step {{.Number}}: {{.Kind}}</h3>
      {{if .Pending}}<span class="step-pending">Pending</span>
      {{else if .Success}}<span class="step-success">Success</span>
      {{else}}<span class="step-failure">Failure</span>{{end}}
    </div>
    <div class="step-details">
      <p><strong>Description:</strong> {{.Description}}</p>
      {{if .URL}}<p><strong>URL:</strong> {{.URL}}</p>{{end}}
      {{if .Element}}<p><strong>Element:</strong> {{.Element}}</p>{{end}}
      {{if .Text}}<p><strong>Text:</strong> {{.Text}}</p>{{end}}
      {{if .Expected}}<p><strong>Expected Text:</strong> {{.Expected}}</p>{{end}}
      {{if .ExpectedRow}}<p><strong>Expected Data:</strong>
        {{range $k, $v := .ExpectedRow}}{{$k}}={{$v}} {{end}}</p>{{end}}
      {{if .Message}}<p><strong>Message:</strong> {{.Message}}</p>{{end}}
      {{if .Error}}<p><strong>Error:</strong> <span class="step-failure">{{.Error}}</span></p>{{end}}
      {{if .Screenshot}}<a href="{{.FullShot}}"><img class="screenshot" src="{{.Screenshot}}" alt="Screenshot"></a>{{end}}
    </div>
  </div>
{{end}}
</div>
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Parse(htmlTemplate))

// WriteHTML renders the report to a standalone HTML file with thumbnail
// screenshots linking to the full captures.
func WriteHTML(rep run.Report, path string) error {
	htmlDir := filepath.Dir(path)

	view := reportView{
		Name:        rep.Name,
		Description: rep.Description,
		Status:      string(rep.Status),
		StatusUpper: strings.ToUpper(string(rep.Status)),
		Progress:    rep.Progress,
		Error:       rep.Error,
	}

	for _, step := range rep.Steps {
		sv := stepView{
			Number:      step.Index + 1,
			Kind:        string(step.Kind),
			Description: step.Description,
			URL:         step.URL,
			Element:     step.Element,
			Text:        step.Text,
			Expected:    step.Expected,
			ExpectedRow: step.ExpectedRow,
		}
		if res, ok := step.Result.(action.Result); ok {
			sv.Success = res.Success
			sv.Message = res.Message
			sv.Error = res.Error
			if res.Screenshot != "" {
				sv.FullShot = relativeTo(htmlDir, res.Screenshot)
				thumb, err := Thumbnail(res.Screenshot, thumbWidth)
				if err != nil {
					thumb = res.Screenshot
				}
				sv.Screenshot = relativeTo(htmlDir, thumb)
			}
		} else {
			sv.Pending = true
		}
		view.Steps = append(view.Steps, sv)
	}

	if htmlDir != "." {
		if err := os.MkdirAll(htmlDir, 0o755); err != nil {
			return fmt.Errorf("report: mkdir %s: %w", htmlDir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	if err := reportTmpl.Execute(f, view); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}

func relativeTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return rel
}
