// Package query is the single query layer the HTTP handlers call into. It
// collapses the list/facet/lookup capabilities into one parameterized service
// backed by either the live content source or the webhook-fed cache.
package query

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"shelflife/internal/metrics"
	"shelflife/internal/post"
	"shelflife/internal/search"
	"shelflife/internal/store"
)

// DefaultLimit applies when a list request carries no limit parameter.
const DefaultLimit = 50

// refreshPageSize bounds how many posts one category sync pulls from the
// live source.
const refreshPageSize = 100

// Source selects where a read is served from.
type Source string

const (
	SourceNotion Source = "notion"
	SourceCache  Source = "cache"
)

// ContentSource is the live backing database. *notion.Service satisfies it.
type ContentSource interface {
	Configured() bool
	PostsByCategory(ctx context.Context, category post.Category, limit int) ([]post.Post, error)
	PostBySlug(ctx context.Context, category post.Category, slug string) (*post.Post, error)
	UniqueTags(ctx context.Context, category post.Category) ([]string, error)
	UniqueSubTopics(ctx context.Context, category post.Category) ([]string, error)
}

// ListResult is a category listing plus its facets and provenance.
type ListResult struct {
	Posts     []post.Post
	Tags      []string
	SubTopics []string
	Source    Source
	// Warning is set when the requested source failed and the cache served
	// the response instead.
	Warning string
}

// Service serves listings, lookups and search over posts.
type Service struct {
	source ContentSource
	store  store.PostStore
	index  *search.Index
	logger *log.Logger

	refreshInterval time.Duration
	done            chan struct{}
}

func NewService(source ContentSource, st store.PostStore, idx *search.Index, refreshInterval time.Duration, logger *log.Logger) *Service {
	return &Service{
		source:          source,
		store:           st,
		index:           idx,
		logger:          logger,
		refreshInterval: refreshInterval,
		done:            make(chan struct{}),
	}
}

// ListByCategory returns up to limit posts for the category, newest first
// with pinned posts stably sorted ahead of the rest.
//
// The direct path surfaces source errors by falling back to the cache with a
// warning. The cache path never fails a read: store errors are logged and an
// empty listing is returned, trading correctness for availability on the
// webhook-fed path.
func (s *Service) ListByCategory(ctx context.Context, category post.Category, limit int, src Source) (ListResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if src == SourceNotion {
		res, err := s.listFromSource(ctx, category, limit)
		if err == nil {
			return res, nil
		}
		s.logger.Printf("Direct query for %s failed, serving cache: %v", category, err)
		res = s.listFromCache(category, limit)
		res.Warning = "live source unavailable, serving cached posts"
		return res, nil
	}

	return s.listFromCache(category, limit), nil
}

func (s *Service) listFromSource(ctx context.Context, category post.Category, limit int) (ListResult, error) {
	posts, err := s.source.PostsByCategory(ctx, category, limit)
	if err != nil {
		return ListResult{}, err
	}
	tags, err := s.source.UniqueTags(ctx, category)
	if err != nil {
		return ListResult{}, err
	}
	subTopics, err := s.source.UniqueSubTopics(ctx, category)
	if err != nil {
		return ListResult{}, err
	}
	sortPinnedNewest(posts)
	return ListResult{
		Posts:     truncate(posts, limit),
		Tags:      tags,
		SubTopics: subTopics,
		Source:    SourceNotion,
	}, nil
}

func (s *Service) listFromCache(category post.Category, limit int) ListResult {
	posts, err := s.store.Get(category)
	if err != nil {
		s.logger.Printf("Warning: cache read for %s failed, returning empty list: %v", category, err)
		return ListResult{Posts: []post.Post{}, Tags: []string{}, SubTopics: []string{}, Source: SourceCache}
	}
	tags, err := s.store.UniqueTags(category)
	if err != nil {
		s.logger.Printf("Warning: tag facets for %s failed: %v", category, err)
		tags = []string{}
	}
	subTopics, err := s.store.UniqueSubTopics(category)
	if err != nil {
		s.logger.Printf("Warning: sub-topic facets for %s failed: %v", category, err)
		subTopics = []string{}
	}
	sortPinnedNewest(posts)
	return ListResult{
		Posts:     truncate(posts, limit),
		Tags:      tags,
		SubTopics: subTopics,
		Source:    SourceCache,
	}
}

// GetBySlug finds one post. The live source is preferred when configured and
// requested; the cache is scanned otherwise. A missing post is (nil, nil).
func (s *Service) GetBySlug(ctx context.Context, category post.Category, slug string, src Source) (*post.Post, Source, error) {
	if src == SourceNotion && s.source.Configured() {
		p, err := s.source.PostBySlug(ctx, category, slug)
		if err == nil {
			return p, SourceNotion, nil
		}
		s.logger.Printf("Direct lookup of %s/%s failed, scanning cache: %v", category, slug, err)
	}

	posts, err := s.store.Get(category)
	if err != nil {
		return nil, SourceCache, fmt.Errorf("read cache for %s: %w", category, err)
	}
	for i := range posts {
		if posts[i].Slug == slug {
			return &posts[i], SourceCache, nil
		}
	}
	return nil, SourceCache, nil
}

// Search runs a full-text query over the indexed cache.
func (s *Service) Search(query string, category post.Category, limit int) ([]search.Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.index.Search(query, category, limit)
}

// Ingest replaces a category's cached posts and reindexes them. This is the
// webhook write path.
func (s *Service) Ingest(category post.Category, posts []post.Post) error {
	if err := s.store.Replace(category, posts); err != nil {
		return fmt.Errorf("replace %s cache: %w", category, err)
	}
	if err := s.index.IndexPosts(category, posts); err != nil {
		// The cache is already updated; a stale index degrades search only.
		s.logger.Printf("Warning: reindex of %s failed: %v", category, err)
	}
	metrics.PostsIngested.WithLabelValues(string(category)).Add(float64(len(posts)))
	return nil
}

// RefreshCategory pulls a category from the live source into the cache.
func (s *Service) RefreshCategory(ctx context.Context, category post.Category) (int, error) {
	if !s.source.Configured() {
		return 0, fmt.Errorf("refresh %s: live source is not configured", category)
	}
	posts, err := s.source.PostsByCategory(ctx, category, refreshPageSize)
	if err != nil {
		return 0, fmt.Errorf("refresh %s: %w", category, err)
	}
	if err := s.Ingest(category, posts); err != nil {
		return 0, err
	}
	return len(posts), nil
}

// RefreshAll syncs both publishing verticals.
func (s *Service) RefreshAll(ctx context.Context) error {
	for _, category := range []post.Category{post.CategoryBookReviews, post.CategoryUKLife} {
		if _, err := s.RefreshCategory(ctx, category); err != nil {
			return err
		}
	}
	return nil
}

// Start launches the periodic refresh loop. It is a no-op when no interval is
// configured or the live source has no credentials.
func (s *Service) Start() {
	if s.refreshInterval <= 0 || !s.source.Configured() {
		return
	}
	go s.refreshLoop()
}

func (s *Service) Stop() {
	close(s.done)
}

func (s *Service) refreshLoop() {
	s.logger.Printf("Starting refresh loop, interval %v", s.refreshInterval)

	if err := s.RefreshAll(context.Background()); err != nil {
		s.logger.Printf("Initial refresh failed: %v", err)
	}

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RefreshAll(context.Background()); err != nil {
				s.logger.Printf("Scheduled refresh failed: %v", err)
			}
		case <-s.done:
			s.logger.Printf("Refresh loop shutting down")
			return
		}
	}
}

// CacheInfo exposes cache state for the debug endpoint.
func (s *Service) CacheInfo() (store.Info, error) {
	return s.store.Info()
}

// CachedPosts returns the raw cached posts for a category, unsorted and
// untruncated, for the debug endpoint.
func (s *Service) CachedPosts(category post.Category) ([]post.Post, error) {
	return s.store.Get(category)
}

// SourceConfigured reports whether direct queries are possible.
func (s *Service) SourceConfigured() bool {
	return s.source.Configured()
}

func sortPinnedNewest(posts []post.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Pinned != posts[j].Pinned {
			return posts[i].Pinned
		}
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
}

func truncate(posts []post.Post, limit int) []post.Post {
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}
