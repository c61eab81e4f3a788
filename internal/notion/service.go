package notion

import (
	"context"
	"fmt"
	"log"
	"time"

	"shelflife/internal/post"
)

// Service is the direct-query content source: category listings, slug
// lookups and facet values straight from the content database.
type Service struct {
	client  *Client
	mapper  *PageMapper
	filters FilterConfig
	logger  *log.Logger
}

func NewService(client *Client, mapper *PageMapper, filters FilterConfig, logger *log.Logger) *Service {
	return &Service{client: client, mapper: mapper, filters: filters, logger: logger}
}

// Configured reports whether direct queries can be served.
func (s *Service) Configured() bool {
	return s != nil && s.client.Configured()
}

// PostsByCategory returns published posts for the category, newest first by
// post date, truncated to limit.
func (s *Service) PostsByCategory(ctx context.Context, category post.Category, limit int) ([]post.Post, error) {
	if !s.client.Configured() {
		return nil, ErrNotConfigured
	}
	sorts := []Sort{{Property: s.filters.DateProperty, Direction: "descending"}}
	pages, err := s.client.QueryDatabase(ctx, s.filters.ListFilter(category), sorts, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s posts: %w", category, err)
	}
	return s.mapper.MapPages(pages), nil
}

// PostBySlug finds a published post whose derived slug matches. Returns
// (nil, nil) when nothing matches: absence is a result, not an error.
func (s *Service) PostBySlug(ctx context.Context, category post.Category, slug string) (*post.Post, error) {
	if !s.client.Configured() {
		return nil, ErrNotConfigured
	}
	// The database has no slug property, so fetch candidates and match on the
	// derived slug client side.
	pages, err := s.client.QueryDatabase(ctx, s.filters.SlugLookupFilter(category), nil, 100)
	if err != nil {
		return nil, fmt.Errorf("lookup slug %s: %w", slug, err)
	}
	for _, p := range s.mapper.MapPages(pages) {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

// UniqueTags derives the facet list for a category from the database's own
// property options rather than scanning pages.
func (s *Service) UniqueTags(ctx context.Context, category post.Category) ([]string, error) {
	if !s.client.Configured() {
		return []string{}, nil
	}
	db, err := s.client.RetrieveDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch facet options: %w", err)
	}

	options := []string{}
	var property string
	switch category {
	case post.CategoryBookReviews:
		property = s.filters.BookReviewProperty
	case post.CategoryUKLife, post.CategoryLifeBlog:
		property = s.filters.UKLifeProperty
	}
	if prop, ok := db.Properties[property]; ok && prop.Type == "multi_select" && prop.MultiSelect != nil {
		for _, o := range prop.MultiSelect.Options {
			options = append(options, o.Name)
		}
	}
	if label, ok := db.Properties["Label"]; ok && label.Type == "select" && label.Select != nil {
		for _, o := range label.Select.Options {
			options = append(options, o.Name)
		}
	}
	return dedupeNonEmpty(options), nil
}

// UniqueSubTopics mirrors UniqueTags; sub-topics come from the same options.
func (s *Service) UniqueSubTopics(ctx context.Context, category post.Category) ([]string, error) {
	return s.UniqueTags(ctx, category)
}

// CreatePostInput is the publish-webhook payload after validation.
type CreatePostInput struct {
	Title         string
	Content       string
	Excerpt       string
	FeaturedImage string
	Tags          []string
	Category      post.Category
	SubTopic      string
	Pinned        bool
}

// CreatePost writes a new record to the content database and returns its
// normalized form.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*post.Post, error) {
	if !s.client.Configured() {
		return nil, ErrNotConfigured
	}

	properties := map[string]any{
		s.filters.TitleProperty: map[string]any{
			"title": []map[string]any{
				{"text": map[string]any{"content": in.Title}},
			},
		},
		"Excerpt": map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]any{"content": in.Excerpt}},
			},
		},
		s.filters.StatusProperty: map[string]any{
			"status": map[string]any{"name": s.filters.ReadyStatus},
		},
		"Pinned": map[string]any{"checkbox": in.Pinned},
		s.filters.DateProperty: map[string]any{
			"date": map[string]any{"start": time.Now().UTC().Format("2006-01-02")},
		},
	}
	if len(in.Tags) > 0 {
		options := make([]map[string]any, 0, len(in.Tags))
		for _, t := range in.Tags {
			options = append(options, map[string]any{"name": t})
		}
		property := s.filters.UKLifeProperty
		if in.Category == post.CategoryBookReviews {
			property = s.filters.BookReviewProperty
		}
		properties[property] = map[string]any{"multi_select": options}
	}
	if in.SubTopic != "" {
		properties["Label"] = map[string]any{
			"select": map[string]any{"name": in.SubTopic},
		}
	}

	page, err := s.client.CreatePage(ctx, properties)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	created := s.mapper.MapPage(*page)
	created.Category = in.Category
	if created.Content == "" || in.Content != "" {
		created.Content = in.Content
	}
	return &created, nil
}
