package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"text/template"
)

//go:embed assets/**/*.tmpl
var embeddedFS embed.FS

// Report template ids
const (
	ReportSystem = "report/system"
	ReportPrompt = "report/market_analysis"
	ReportFooter = "report/footer"
)

// ReportTemplates lists the ids the report service cannot work without
var ReportTemplates = []string{ReportSystem, ReportPrompt, ReportFooter}

// Registry holds parsed templates keyed by id (path without the .tmpl suffix).
type Registry struct {
	templates map[string]*template.Template
}

// Load parses every .tmpl file in fsys and fails if any of the required ids is missing.
func Load(fsys fs.FS, required ...string) (*Registry, error) {
	r := &Registry{templates: map[string]*template.Template{}}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".tmpl" {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read template %s: %w", p, err)
		}

		id := strings.TrimSuffix(p, ".tmpl")
		parsed, err := template.New(id).Funcs(Funcs()).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", id, err)
		}

		r.templates[id] = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range required {
		if _, ok := r.templates[id]; !ok {
			return nil, fmt.Errorf("template not found: %s", id)
		}
	}

	return r, nil
}

// Get returns the registry built from the embedded report assets.
func Get() *Registry {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embeddedFS, "assets")
		if err != nil {
			defaultErr = fmt.Errorf("prepare embedded templates: %w", err)
			return
		}
		defaultRegistry, defaultErr = Load(sub, ReportTemplates...)
	})

	if defaultErr != nil {
		panic(defaultErr)
	}

	return defaultRegistry
}

// Render executes the template id with data.
func (r *Registry) Render(id string, data any) (string, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return "", fmt.Errorf("template not found: %s", id)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", id, err)
	}

	return buf.String(), nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)
