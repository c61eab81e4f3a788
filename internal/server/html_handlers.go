package server

import (
	"net/http"
	"strings"
	"time"

	"shelflife/internal/post"
	"shelflife/internal/query"
	"shelflife/internal/rss"
)

var categoryLabels = map[post.Category]string{
	post.CategoryBookReviews: "Book Reviews",
	post.CategoryUKLife:      "UK Life",
}

// preferredSource picks the live source when credentials exist and the cache
// otherwise, so cache-only deployments render pages without warnings.
func (s *Server) preferredSource() query.Source {
	if s.query.SourceConfigured() {
		return query.SourceNotion
	}
	return query.SourceCache
}

type categorySection struct {
	Category post.Category
	Label    string
	Posts    []post.Post
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sections := make([]categorySection, 0, 2)
	for _, category := range []post.Category{post.CategoryBookReviews, post.CategoryUKLife} {
		res, err := s.query.ListByCategory(r.Context(), category, 5, s.preferredSource())
		if err != nil {
			s.logger.Printf("Error listing %s for index: %v", category, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		sections = append(sections, categorySection{
			Category: category,
			Label:    categoryLabels[category],
			Posts:    res.Posts,
		})
	}

	data := map[string]any{
		"Title":    "Shelflife",
		"Sections": sections,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderTemplate(w, "index.html", data); err != nil {
		s.logger.Printf("Error rendering index template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type postGroup struct {
	Name  string
	Posts []post.Post
}

// groupBySubTopic partitions posts into display groups, preserving the
// pinned-first, newest-first ordering inside each group.
func groupBySubTopic(posts []post.Post) []postGroup {
	var groups []postGroup
	index := make(map[string]int)
	for _, p := range posts {
		name := p.SubTopic
		if name == "" {
			name = "General"
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, postGroup{Name: name})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}
	return groups
}

func (s *Server) handleCategoryPage(w http.ResponseWriter, r *http.Request) {
	category, ok := post.ParseCategory(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		s.handle404(w, r)
		return
	}

	res, err := s.query.ListByCategory(r.Context(), category, query.DefaultLimit, s.preferredSource())
	if err != nil {
		s.logger.Printf("Error listing %s: %v", category, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	facets := res.Tags
	if category == post.CategoryUKLife {
		facets = res.SubTopics
	}
	data := map[string]any{
		"Title":    categoryLabels[category],
		"Category": category,
		"Groups":   groupBySubTopic(res.Posts),
		"Facets":   facets,
		"Warning":  res.Warning,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderTemplate(w, "category.html", data); err != nil {
		s.logger.Printf("Error rendering category template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handlePostPage(w http.ResponseWriter, r *http.Request) {
	category, ok := post.ParseCategory(r.PathValue("category"))
	if !ok {
		s.handle404(w, r)
		return
	}

	p, _, err := s.query.GetBySlug(r.Context(), category, r.PathValue("slug"), s.preferredSource())
	if err != nil {
		s.logger.Printf("Error fetching %s/%s: %v", category, r.PathValue("slug"), err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if p == nil {
		s.handle404(w, r)
		return
	}

	data := map[string]any{
		"Title": p.Title,
		"Post":  p,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderTemplate(w, "post.html", data); err != nil {
		s.logger.Printf("Error rendering post template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("feed")
	if !strings.HasSuffix(name, ".xml") {
		s.handle404(w, r)
		return
	}
	category, ok := post.ParseCategory(strings.TrimSuffix(name, ".xml"))
	if !ok {
		s.handle404(w, r)
		return
	}

	res, err := s.query.ListByCategory(r.Context(), category, query.DefaultLimit, query.SourceCache)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	feed := rss.Build(category, res.Posts, s.config.SiteURL, time.Now())
	body, err := feed.Encode()
	if err != nil {
		s.logger.Printf("Error encoding %s feed: %v", category, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(body)
}
