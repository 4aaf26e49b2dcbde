// Package view renders the server-side HTML pages.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

//go:embed templates
var templateFS embed.FS

const layout = "templates/layout.html"

// Page names accepted by Renderer.Render.
const (
	Login         = "login.html"
	Dashboard     = "dashboard.html"
	PatientList   = "patients/list.html"
	PatientCreate = "patients/create.html"
	PatientEdit   = "patients/edit.html"
)

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(domain.DateLayout)
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
}

// Renderer implements echo.Renderer over the embedded templates. Each page is
// parsed together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template once.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	err := fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || p == layout || path.Ext(p) != ".html" {
			return err
		}
		t, err := template.New(path.Base(layout)).Funcs(funcs).ParseFS(templateFS, layout, p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[p[len("templates/"):]] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render executes the layout with the named page's blocks.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, path.Base(layout), data)
}
