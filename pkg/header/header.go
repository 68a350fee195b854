package header

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/justin-jit/stencilgen/internal/xutil"
)

//go:embed templates
var templates embed.FS

// Generator renders a Document into the fixed-layout C header described in
// §4.H.
type Generator struct {
	template *template.Template
}

// NewGenerator parses the embedded header template.
func NewGenerator() (*Generator, error) {
	funcs := template.FuncMap{
		"FormatBytes": formatBytes,
		"trimPrefix":  strings.TrimPrefix,
	}

	t, err := template.New("header.tmpl").Funcs(funcs).ParseFS(templates, "templates/header.tmpl")
	if err != nil {
		return nil, fmt.Errorf("header: parse template: %w", err)
	}

	return &Generator{template: t}, nil
}

// GenerateTo renders doc into w.
func (g *Generator) GenerateTo(w io.Writer, doc Document) error {
	return g.template.ExecuteTemplate(w, "header.tmpl", doc)
}

// Generate renders doc to a string.
func (g *Generator) Generate(doc Document) (string, error) {
	var b strings.Builder
	if err := g.GenerateTo(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

// formatBytes renders a byte slice as the body of a static C array
// initializer, eight bytes per line, matching build.py's batched(body, 8).
func formatBytes(body []byte) string {
	var b strings.Builder
	for _, chunk := range xutil.Batched(body, 8) {
		b.WriteString("    ")
		for i, value := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "0x%02X", value)
		}
		b.WriteString(",\n")
	}
	return b.String()
}
