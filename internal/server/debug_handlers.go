package server

import (
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"shelflife/internal/post"
)

// handleDebugCache dumps cache state and the raw cached posts so webhook
// integrations can be checked end to end.
func (s *Server) handleDebugCache(w http.ResponseWriter, r *http.Request) {
	info, err := s.query.CacheInfo()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	posts := make(map[string][]post.Post)
	for _, category := range []post.Category{post.CategoryBookReviews, post.CategoryUKLife} {
		cached, err := s.query.CachedPosts(category)
		if err != nil {
			s.logger.Printf("Error reading cached %s posts: %v", category, err)
			continue
		}
		posts[string(category)] = cached
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"cacheInfo":        info,
		"posts":            posts,
		"sourceConfigured": s.query.SourceConfigured(),
	})
}

// handleDebugStats renders a small chart dashboard over the cache contents.
func (s *Server) handleDebugStats(w http.ResponseWriter, r *http.Request) {
	info, err := s.query.CacheInfo()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	categories := make([]string, 0, len(info.Counts))
	for category := range info.Counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Cached posts per category"}))
	var barData []opts.BarData
	for _, category := range categories {
		barData = append(barData, opts.BarData{Value: info.Counts[category]})
	}
	bar.SetXAxis(categories).AddSeries("posts", barData)

	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Tags per category"}))
	var pieData []opts.PieData
	for _, category := range categories {
		tags, err := s.query.CachedPosts(post.Category(category))
		if err != nil {
			continue
		}
		unique := make(map[string]struct{})
		for _, p := range tags {
			for _, t := range p.Tags {
				unique[t] = struct{}{}
			}
		}
		pieData = append(pieData, opts.PieData{Name: category, Value: len(unique)})
	}
	pie.AddSeries("tags", pieData)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		s.logger.Printf("Error rendering stats chart: %v", err)
		return
	}
	if err := pie.Render(w); err != nil {
		s.logger.Printf("Error rendering stats chart: %v", err)
	}
}
