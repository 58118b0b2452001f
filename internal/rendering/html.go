package rendering

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// rootTemplate is the entry point every template set must define.
const rootTemplate = "page"

// Renderer renders Pages to HTML.
type Renderer struct {
	tmpl *template.Template
}

// New returns a Renderer using the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("portfolio").ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse embedded templates",
			Cause:   err,
		}
	}
	return newRenderer(tmpl)
}

// NewFromFile returns a Renderer using the template file at templatePath.
// The file replaces the embedded set and must define a "page" template.
func NewFromFile(templatePath string) (*Renderer, error) {
	tmpl, err := parseTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	return newRenderer(tmpl)
}

func newRenderer(tmpl *template.Template) (*Renderer, error) {
	if tmpl.Lookup(rootTemplate) == nil {
		return nil, &TemplateError{
			Message: fmt.Sprintf("template set does not define %q", rootTemplate),
		}
	}
	return &Renderer{tmpl: tmpl}, nil
}

// parseTemplate reads and parses an HTML template file
func parseTemplate(templatePath string) (*template.Template, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{
				Message: fmt.Sprintf("template file not found: %s", templatePath),
				Cause:   err,
			}
		}
		return nil, &TemplateError{
			Message: fmt.Sprintf("failed to read template file: %s", templatePath),
			Cause:   err,
		}
	}

	tmpl, err := template.New("portfolio").Parse(string(content))
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse template",
			Cause:   err,
		}
	}

	return tmpl, nil
}

// Render writes the page to w. Nothing is written unless the template executes
// completely, so a failing render never leaves a partial page behind.
func (r *Renderer) Render(w io.Writer, page Page) error {
	switch page.Kind {
	case KindLoading, KindFailed:
	case KindLoaded:
		if page.Profile == nil {
			return &RenderError{Message: "loaded page has no profile document"}
		}
	default:
		return &RenderError{Message: fmt.Sprintf("unknown page kind %d", page.Kind)}
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, rootTemplate, page); err != nil {
		return &TemplateError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}

	if _, err := buf.WriteTo(w); err != nil {
		return &RenderError{
			Message: "failed to write page",
			Cause:   err,
		}
	}
	return nil
}
