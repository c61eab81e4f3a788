package server

import (
	"net/http"
	"strconv"

	"shelflife/internal/post"
	"shelflife/internal/query"
)

// parseLimit reads the limit query parameter, falling back to the default for
// missing or unusable values.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return query.DefaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return query.DefaultLimit
	}
	return limit
}

// parseSource reads the source selector. Without an explicit choice the live
// source is used when configured and the cache otherwise.
func (s *Server) parseSource(r *http.Request) query.Source {
	switch r.URL.Query().Get("source") {
	case string(query.SourceCache):
		return query.SourceCache
	case string(query.SourceNotion):
		return query.SourceNotion
	}
	return s.preferredSource()
}

func (s *Server) handleListBookReviews(w http.ResponseWriter, r *http.Request) {
	s.listCategory(w, r, post.CategoryBookReviews)
}

func (s *Server) handleListUKLife(w http.ResponseWriter, r *http.Request) {
	s.listCategory(w, r, post.CategoryUKLife)
}

func (s *Server) listCategory(w http.ResponseWriter, r *http.Request, category post.Category) {
	res, err := s.query.ListByCategory(r.Context(), category, parseLimit(r), s.parseSource(r))
	if err != nil {
		s.logger.Printf("Error listing %s: %v", category, err)
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := map[string]any{
		"success":  true,
		"posts":    res.Posts,
		"count":    len(res.Posts),
		"category": category,
		"source":   res.Source,
	}
	// Each vertical exposes its own facet flavor.
	if category == post.CategoryBookReviews {
		payload["uniqueTags"] = res.Tags
	} else {
		payload["uniqueSubTopics"] = res.SubTopics
	}
	if res.Warning != "" {
		payload["warning"] = res.Warning
	}
	RespondWithJSON(w, http.StatusOK, payload)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	category, ok := post.ParseCategory(r.PathValue("category"))
	if !ok {
		RespondWithError(w, http.StatusNotFound, "unknown category")
		return
	}
	slug := r.PathValue("slug")

	p, src, err := s.query.GetBySlug(r.Context(), category, slug, s.parseSource(r))
	if err != nil {
		s.logger.Printf("Error fetching %s/%s: %v", category, slug, err)
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		RespondWithError(w, http.StatusNotFound, "post not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"post":    p,
		"source":  src,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		RespondWithError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	var category post.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		parsed, ok := post.ParseCategory(raw)
		if !ok {
			RespondWithError(w, http.StatusBadRequest, "unknown category")
			return
		}
		category = parsed
	}

	results, err := s.query.Search(q, category, parseLimit(r))
	if err != nil {
		s.logger.Printf("Search %q failed: %v", q, err)
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": results,
		"count":   len(results),
		"query":   q,
	})
}

func (s *Server) handleCategoryTags(w http.ResponseWriter, r *http.Request) {
	s.categoryFacets(w, r, "uniqueTags")
}

func (s *Server) handleCategorySubTopics(w http.ResponseWriter, r *http.Request) {
	s.categoryFacets(w, r, "uniqueSubTopics")
}

func (s *Server) categoryFacets(w http.ResponseWriter, r *http.Request, field string) {
	category, ok := post.ParseCategory(r.PathValue("category"))
	if !ok {
		RespondWithError(w, http.StatusNotFound, "unknown category")
		return
	}

	res, err := s.query.ListByCategory(r.Context(), category, query.DefaultLimit, s.parseSource(r))
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	values := res.Tags
	if field == "uniqueSubTopics" {
		values = res.SubTopics
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		field:      values,
		"count":    len(values),
		"category": category,
		"source":   res.Source,
	})
}
