package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var templateFS embed.FS

// Renderer holds one template set per page, each sharing the base layout and includes.
// It implements gin's render.HTMLRender.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page with funcs available to all of them
func NewRenderer(funcs template.FuncMap) (*Renderer, error) {
	shared, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/includes/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	err = fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == "templates/base.html" || strings.HasPrefix(p, "templates/includes/") {
			return nil
		}
		t, err := shared.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(templateFS, p); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}
		r.pages[strings.TrimPrefix(p, "templates/")] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Instance implements render.HTMLRender
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("template %s is not defined", name))
	}
	return render.HTML{Template: t, Name: "base", Data: data}
}

// Fragment executes one named block of a page into a string
func (r *Renderer) Fragment(page, block string, data any) (string, error) {
	t, ok := r.pages[page]
	if !ok {
		return "", fmt.Errorf("template %s is not defined", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		return "", fmt.Errorf("failed to render %s/%s: %w", page, block, err)
	}
	return buf.String(), nil
}

// pagerData is what the paginator include expects
type pagerData struct {
	Page  any
	Query url.Values
}

func templateFuncs(routes *Routes, mediaURL func(string) string) template.FuncMap {
	return template.FuncMap{
		"url":   routes.Reverse,
		"media": mediaURL,
		"date": func(t time.Time) string {
			return t.Format("2 January 2006 15:04")
		},
		"linebreaksbr": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
		},
		"orEmpty": func(s string) string {
			if s == "" {
				return "-empty-"
			}
			return s
		},
		"safe": func(s string) template.HTML {
			return template.HTML(s)
		},
		"pager": func(page any, query url.Values) pagerData {
			return pagerData{Page: page, Query: query}
		},
		"pageLink": func(query url.Values, n int) string {
			q := url.Values{}
			for k, v := range query {
				q[k] = v
			}
			q.Set("page", strconv.Itoa(n))
			return "?" + q.Encode()
		},
	}
}
