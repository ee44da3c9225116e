package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/runbookops/runbook-agent/internal/score"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
       max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #1f2328; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: 0.4rem 0.8rem; text-align: left; }
th { background: #f6f8fa; }
code { background: #f6f8fa; padding: 0.1rem 0.3rem; border-radius: 4px; }
pre { background: #f6f8fa; padding: 1rem; border-radius: 6px; overflow-x: auto; }
hr { border: none; border-top: 1px solid #d0d7de; margin: 2rem 0; }
</style>
</head>
<body>
{{.Content}}
</body>
</html>
`

type pageData struct {
	Title   string
	Content template.HTML
}

// newMarkdown builds the goldmark converter used for report pages: GFM
// tables plus syntax highlighting for command blocks.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// HTML renders one runbook's health report as a standalone HTML page.
func HTML(rep score.Report) (string, error) {
	title := rep.Title
	if title == "" {
		title = rep.Path
	}
	return renderPage("Runbook Health: "+title, Markdown(rep))
}

// FleetHTML renders the fleet report as a standalone HTML page.
func FleetHTML(reports []score.Report) (string, error) {
	return renderPage("Runbook Fleet Health", FleetMarkdown(reports))
}

func renderPage(title, markdown string) (string, error) {
	var body bytes.Buffer
	if err := newMarkdown().Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing page template: %w", err)
	}

	var out bytes.Buffer
	err = tmpl.Execute(&out, pageData{
		Title:   title,
		Content: template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("executing page template: %w", err)
	}
	return out.String(), nil
}
