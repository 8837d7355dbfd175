package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the shells rendered by Pages; each has templates/<name>.html.
var pageNames = []string{"index", "login", "dashboard", "movies", "users"}

// Templates is the echo.Renderer for the page shells.  Each page is parsed
// together with layout.html so they can all define "content".
type Templates struct {
	pages map[string]*template.Template
}

func NewTemplates() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		t.pages[name] = tpl
	}
	return t, nil
}

func (t *Templates) Render(w io.Writer, name string, data any, _ echo.Context) error {
	tpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tpl.ExecuteTemplate(w, "layout", data)
}

type pageData struct {
	Title    string
	Redirect string
}

// Page renders one of the shells.  The shells fetch their data from the
// JSON API in the browser.
func Page(name, title string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, name, pageData{Title: title, Redirect: c.QueryParam("redirect")})
	}
}
