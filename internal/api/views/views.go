// Package views renders the portal's server-side pages.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Page names accepted by Renderer.Render.
const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageDenied    = "denied"
	PageLoading   = "loading"
)

var pages = []string{PageLogin, PageDashboard, PageDenied, PageLoading}

// Renderer implements echo.Renderer. Every page is parsed together with
// the shared layout.
type Renderer struct {
	templates map[string]*template.Template
}

func New() (*Renderer, error) {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, fmt.Errorf("templates fs: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New("layout.html").ParseFS(sub, "layout.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// MustNew is New for process start-up.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
