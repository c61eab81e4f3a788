package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"
)

//go:embed web/templates web/static
var rawContent embed.FS

// webContent holds the virtual filesystem for web assets.
var webContent fs.FS

func init() {
	var err error
	webContent, err = fs.Sub(rawContent, "web")
	if err != nil {
		panic(fmt.Sprintf("failed to create virtual filesystem for web content: %v", err))
	}
}

// pageTemplates are the page files composed with the base layout.
var pageTemplates = []string{"index.html", "category.html", "post.html", "404.html"}

// registerTemplateFuncs defines functions available to templates.
func (s *Server) registerTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"excerpt": func(content string, length int) string {
			return truncateText(stripHTML(content), length)
		},
		"readingTime": readingTime,
		"safeHTML": func(content string) template.HTML {
			return template.HTML(content)
		},
	}
}

// loadTemplates parses each page template together with the base layout and
// caches the result per page.
func (s *Server) loadTemplates() error {
	funcMap := s.registerTemplateFuncs()
	cache := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		t, err := template.New("base.html").Funcs(funcMap).
			ParseFS(webContent, "templates/base.html", "templates/"+name)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		cache[name] = t
	}
	s.templateCache = cache
	return nil
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) error {
	t, ok := s.templateCache[name]
	if !ok {
		return fmt.Errorf("template %s not found in cache", name)
	}
	return t.ExecuteTemplate(w, "base.html", data)
}
