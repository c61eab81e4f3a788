// Package importer pulls posts out of external RSS/Atom feeds and merges
// them into the cache. Unlike webhook deliveries, an import never discards
// posts it did not see: items merge into the existing cache by slug.
package importer

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"shelflife/internal/post"
	"shelflife/internal/security/netutil"
)

// Cache is the ingest surface the importer merges into. *query.Service
// satisfies it.
type Cache interface {
	CachedPosts(category post.Category) ([]post.Post, error)
	Ingest(category post.Category, posts []post.Post) error
}

// Result summarizes one import run.
type Result struct {
	FeedTitle string         `json:"feedTitle"`
	Imported  int            `json:"imported"`
	Counts    map[string]int `json:"counts"`
}

// Importer fetches and parses external feeds.
type Importer struct {
	parser *gofeed.Parser
	mapper *post.Mapper
	cache  Cache
	logger *log.Logger
}

func New(mapper *post.Mapper, cache Cache, logger *log.Logger) *Importer {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			// Feed URLs are caller-supplied, so connections into private
			// address space are refused at dial time.
			DialContext: netutil.DialGuard(&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}),
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after 5 redirects")
			}
			return nil
		},
	}
	return &Importer{parser: parser, mapper: mapper, cache: cache, logger: logger}
}

// Import fetches the feed at url and merges its items into the cache. When
// category is non-empty every item lands there; otherwise each item is
// categorized individually.
func (i *Importer) Import(ctx context.Context, url string, category post.Category) (*Result, error) {
	feed, err := i.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	return i.merge(feed, category)
}

func (i *Importer) merge(feed *gofeed.Feed, category post.Category) (*Result, error) {
	records := make([]map[string]any, 0, len(feed.Items))
	for _, item := range feed.Items {
		records = append(records, itemRecord(item))
	}
	posts := i.mapper.MapAll(records)

	byCategory := make(map[post.Category][]post.Post)
	for _, p := range posts {
		target := category
		if target == "" {
			target = p.Category
		} else {
			p.Category = target
		}
		byCategory[target] = append(byCategory[target], p)
	}

	result := &Result{FeedTitle: feed.Title, Counts: make(map[string]int)}
	for target, incoming := range byCategory {
		merged, err := i.mergeCategory(target, incoming)
		if err != nil {
			return nil, err
		}
		result.Counts[string(target)] = len(incoming)
		result.Imported += len(incoming)
		i.logger.Printf("Imported %d posts into %s (%d cached total)", len(incoming), target, merged)
	}
	return result, nil
}

// mergeCategory overlays incoming posts on the cached set by slug and writes
// the union back.
func (i *Importer) mergeCategory(category post.Category, incoming []post.Post) (int, error) {
	existing, err := i.cache.CachedPosts(category)
	if err != nil {
		return 0, fmt.Errorf("read cache for %s: %w", category, err)
	}

	replaced := make(map[string]struct{}, len(incoming))
	for _, p := range incoming {
		replaced[p.Slug] = struct{}{}
	}

	merged := make([]post.Post, 0, len(existing)+len(incoming))
	merged = append(merged, incoming...)
	for _, p := range existing {
		if _, dup := replaced[p.Slug]; dup {
			continue
		}
		merged = append(merged, p)
	}

	if err := i.cache.Ingest(category, merged); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// itemRecord reshapes a feed item into the webhook record shape so the shared
// mapper handles defaults, slugs and categorization.
func itemRecord(item *gofeed.Item) map[string]any {
	record := map[string]any{
		"title":    item.Title,
		"post_url": item.Link,
	}
	if item.GUID != "" {
		record["id"] = item.GUID
	}
	content := item.Content
	if content == "" {
		content = item.Description
	}
	if content != "" {
		record["content"] = content
	}
	if len(item.Categories) > 0 {
		record["tags"] = item.Categories
	}
	if len(item.Authors) > 0 && item.Authors[0].Name != "" {
		record["author"] = item.Authors[0].Name
	}
	if item.PublishedParsed != nil {
		record["date"] = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		record["date"] = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return record
}
