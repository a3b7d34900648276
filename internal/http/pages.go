package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed web
var webFS embed.FS

// page describes one server-rendered page.
type page struct {
	Route    string
	Template string
	Title    string
	Nav      string
}

var pages = []page{
	{Route: "/", Template: "journal.html", Title: "Journal", Nav: "journal"},
	{Route: "/index", Template: "index.html", Title: "Home", Nav: "index"},
	{Route: "/projects", Template: "projects.html", Title: "Projects", Nav: "projects"},
	{Route: "/about", Template: "about.html", Title: "About", Nav: "about"},
}

// renderer implements echo.Renderer. Each page is parsed together with the
// shared layout into its own template set.
type renderer struct {
	templates map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.ParseFS(webFS, "web/templates/layout.html", "web/templates/"+p.Template)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p.Template, err)
		}
		r.templates[p.Template] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

func (s *Server) registerPages() {
	for _, p := range pages {
		s.echo.GET(p.Route, func(c echo.Context) error {
			return c.Render(http.StatusOK, p.Template, p)
		})
	}

	static := echo.MustSubFS(webFS, "web/static")
	s.echo.StaticFS("/static", static)
	s.echo.GET("/manifest.json", s.handleManifest(static))
	s.echo.GET("/sw.js", s.handleServiceWorker(static))
}

func (s *Server) handleManifest(static fs.FS) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := fs.ReadFile(static, "manifest.json")
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
	}
}

// handleServiceWorker serves the worker from the site root with a scope
// header so it can control every page.
func (s *Server) handleServiceWorker(static fs.FS) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := fs.ReadFile(static, "js/sw.js")
		if err != nil {
			return err
		}
		c.Response().Header().Set("Service-Worker-Allowed", "/")
		return c.Blob(http.StatusOK, "application/javascript", data)
	}
}
