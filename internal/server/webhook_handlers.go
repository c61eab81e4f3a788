package server

import (
	"encoding/json"
	"io"
	"net/http"

	"shelflife/internal/metrics"
	"shelflife/internal/notion"
	"shelflife/internal/post"
)

// maxWebhookBody bounds webhook payload size at 5 MB.
const maxWebhookBody = 5 << 20

// decodeRecords accepts the three payload shapes webhook senders have used
// over time: a single record object, a bare array of records, or an object
// with a "posts" array.
func decodeRecords(body []byte) ([]map[string]any, bool) {
	var asArray []map[string]any
	if err := json.Unmarshal(body, &asArray); err == nil {
		return asArray, true
	}

	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err != nil {
		return nil, false
	}
	if wrapped, ok := asObject["posts"].([]any); ok {
		records := make([]map[string]any, 0, len(wrapped))
		for _, item := range wrapped {
			if record, ok := item.(map[string]any); ok {
				records = append(records, record)
			}
		}
		return records, true
	}
	return []map[string]any{asObject}, true
}

func (s *Server) handleMakePosts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues("make-posts", "bad_request").Inc()
		RespondWithError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	records, ok := decodeRecords(body)
	if !ok {
		metrics.WebhookDeliveries.WithLabelValues("make-posts", "bad_request").Inc()
		RespondWithError(w, http.StatusBadRequest, "malformed JSON payload")
		return
	}
	if len(records) == 0 {
		metrics.WebhookDeliveries.WithLabelValues("make-posts", "bad_request").Inc()
		RespondWithError(w, http.StatusBadRequest, "empty payload")
		return
	}

	posts := s.mapper.MapAll(records)

	byCategory := make(map[post.Category][]post.Post)
	for _, p := range posts {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	counts := make(map[string]int, len(byCategory))
	for category, group := range byCategory {
		if err := s.query.Ingest(category, group); err != nil {
			s.logger.Printf("Error ingesting %d posts into %s: %v", len(group), category, err)
			metrics.WebhookDeliveries.WithLabelValues("make-posts", "error").Inc()
			RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		counts[string(category)] = len(group)
	}

	s.logger.Printf("Webhook delivery stored %d posts across %d categories", len(posts), len(counts))
	metrics.WebhookDeliveries.WithLabelValues("make-posts", "ok").Inc()
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"counts":  counts,
		"total":   len(posts),
	})
}

// handleWebhookStatus lets webhook senders probe the cache without posting.
func (s *Server) handleWebhookStatus(w http.ResponseWriter, r *http.Request) {
	info, err := s.query.CacheInfo()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"cacheInfo": info,
	})
}

func (s *Server) handleNotionSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	// The body is optional; an empty or malformed body means "sync everything".
	_ = json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&req)

	counts := make(map[string]int)
	categories := []post.Category{post.CategoryBookReviews, post.CategoryUKLife}
	if req.Category != "" {
		category, ok := post.ParseCategory(req.Category)
		if !ok {
			metrics.WebhookDeliveries.WithLabelValues("notion-sync", "bad_request").Inc()
			RespondWithError(w, http.StatusBadRequest, "unknown category")
			return
		}
		categories = []post.Category{category}
	}

	for _, category := range categories {
		n, err := s.query.RefreshCategory(r.Context(), category)
		if err != nil {
			s.logger.Printf("Sync of %s failed: %v", category, err)
			metrics.WebhookDeliveries.WithLabelValues("notion-sync", "error").Inc()
			RespondWithError(w, http.StatusBadGateway, err.Error())
			return
		}
		counts[string(category)] = n
	}

	metrics.WebhookDeliveries.WithLabelValues("notion-sync", "ok").Inc()
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"counts":  counts,
	})
}

type publishRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	FeaturedImage string   `json:"featured_image"`
	Tags          []string `json:"tags"`
	Category      string   `json:"category"`
	SubTopic      string   `json:"sub_topic"`
	Pinned        bool     `json:"pinned"`
}

// publishCategory maps the accepted category spellings, including the short
// "book"/"life" forms older senders use.
func publishCategory(raw string) (post.Category, bool) {
	switch raw {
	case "book", string(post.CategoryBookReviews):
		return post.CategoryBookReviews, true
	case "life", string(post.CategoryUKLife), string(post.CategoryLifeBlog):
		return post.CategoryUKLife, true
	}
	return "", false
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&req); err != nil {
		metrics.WebhookDeliveries.WithLabelValues("publish", "bad_request").Inc()
		RespondWithError(w, http.StatusBadRequest, "malformed JSON payload")
		return
	}
	if req.Title == "" {
		metrics.WebhookDeliveries.WithLabelValues("publish", "bad_request").Inc()
		RespondWithError(w, http.StatusBadRequest, "title is required")
		return
	}
	category, ok := publishCategory(req.Category)
	if !ok {
		metrics.WebhookDeliveries.WithLabelValues("publish", "bad_request").Inc()
		RespondWithError(w, http.StatusBadRequest, "category must be book or life")
		return
	}
	if !s.publisher.Configured() {
		metrics.WebhookDeliveries.WithLabelValues("publish", "error").Inc()
		RespondWithError(w, http.StatusServiceUnavailable, "publishing is not configured")
		return
	}

	created, err := s.publisher.CreatePost(r.Context(), notion.CreatePostInput{
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
		Tags:          req.Tags,
		Category:      category,
		SubTopic:      req.SubTopic,
		Pinned:        req.Pinned,
	})
	if err != nil {
		s.logger.Printf("Publish failed: %v", err)
		metrics.WebhookDeliveries.WithLabelValues("publish", "error").Inc()
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	metrics.WebhookDeliveries.WithLabelValues("publish", "ok").Inc()
	RespondWithJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"post":    created,
	})
}

func (s *Server) handleImportRSS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL      string `json:"url"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&req); err != nil || req.URL == "" {
		RespondWithError(w, http.StatusBadRequest, "url is required")
		return
	}

	var category post.Category
	if req.Category != "" {
		parsed, ok := post.ParseCategory(req.Category)
		if !ok {
			RespondWithError(w, http.StatusBadRequest, "unknown category")
			return
		}
		category = parsed
	}

	result, err := s.importer.Import(r.Context(), req.URL, category)
	if err != nil {
		s.logger.Printf("RSS import from %s failed: %v", req.URL, err)
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}
