// Package web holds the server-rendered views, static assets and the HTTP
// error page handler.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Views lists the pages rendered inside base.html.
var Views = []string{
	"index.html",
	"post.html",
	"read.html",
	"edit.html",
	"delete.html",
}

type TemplateRegistry struct {
	templates map[string]*template.Template
}

func NewTemplateRegistry(siteTitle string) (*TemplateRegistry, error) {
	funcs := template.FuncMap{
		"siteTitle": func() string { return siteTitle },
	}

	t := make(map[string]*template.Template, len(Views))
	for _, name := range Views {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/"+name, "templates/base.html")
		if err != nil {
			return nil, err
		}
		t[name] = tmpl
	}
	return &TemplateRegistry{templates: t}, nil
}

func (t *TemplateRegistry) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return errors.New("template not found: " + name)
	}

	return tmpl.ExecuteTemplate(w, "base.html", data)
}

// Static returns the stylesheet and other assets served under /static.
func Static() fs.FS {
	return echo.MustSubFS(staticFS, "static")
}

// HTTPErrorHandler answers failed requests with the status code and a
// short text message. Everything except not found is logged.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = http.StatusText(code)
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}
		if code != http.StatusNotFound {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", code,
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.String(code, message)
		}
		if err != nil {
			logger.Error("writing error response", "error", err)
		}
	}
}
