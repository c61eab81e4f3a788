// Package search maintains an in-memory full-text index over the cached
// posts. The index is rebuilt per category whenever that category's cache is
// replaced, so search results always reflect the latest sync.
package search

import (
	"fmt"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"shelflife/internal/post"
)

// document is the indexed shape of a post. Hits return the listed fields
// plus highlighted fragments, not full bodies.
type document struct {
	Title       string
	Content     string
	Excerpt     string
	Author      string
	SubTopic    string
	Tags        []string
	Category    string
	Slug        string
	PublishedAt time.Time
}

// Result is one search hit with highlighted fragments.
type Result struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Slug      string              `json:"slug"`
	Category  string              `json:"category"`
	Excerpt   string              `json:"excerpt"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// Index wraps a memory-only bleve index. Category replacements remove that
// category's previous documents before indexing the new set.
type Index struct {
	mu    sync.Mutex
	index bleve.Index
	// docIDs tracks which documents belong to each category so a category
	// replacement can drop its stale entries.
	docIDs map[post.Category][]string
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return &Index{index: idx, docIDs: make(map[post.Category][]string)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = "keyword"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Title", titleFieldMapping)
	docMapping.AddFieldMappingsAt("Content", textFieldMapping)
	docMapping.AddFieldMappingsAt("Excerpt", textFieldMapping)
	docMapping.AddFieldMappingsAt("Author", textFieldMapping)
	docMapping.AddFieldMappingsAt("SubTopic", textFieldMapping)
	docMapping.AddFieldMappingsAt("Tags", textFieldMapping)
	docMapping.AddFieldMappingsAt("Category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("Slug", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// IndexPosts replaces the indexed documents for a category with the given
// posts, mirroring the cache's replace-wholesale contract.
func (i *Index) IndexPosts(category post.Category, posts []post.Post) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.index.NewBatch()
	for _, id := range i.docIDs[category] {
		batch.Delete(id)
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		doc := document{
			Title:       p.Title,
			Content:     p.Content,
			Excerpt:     p.Excerpt,
			Author:      p.Author,
			SubTopic:    p.SubTopic,
			Tags:        p.Tags,
			Category:    string(category),
			Slug:        p.Slug,
			PublishedAt: p.PublishedAt,
		}
		if err := batch.Index(p.ID, doc); err != nil {
			return fmt.Errorf("index post %s: %w", p.ID, err)
		}
		ids = append(ids, p.ID)
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit index batch: %w", err)
	}
	i.docIDs[category] = ids
	return nil
}

// Search runs a query-string search, optionally restricted to one category.
func (i *Index) Search(queryStr string, category post.Category, limit int) ([]Result, error) {
	query := bleve.NewQueryStringQuery(queryStr)

	var finalQuery = bleve.NewConjunctionQuery(query)
	if category != "" {
		categoryQuery := bleve.NewTermQuery(string(category))
		categoryQuery.SetField("Category")
		finalQuery.AddQuery(categoryQuery)
	}

	req := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Fields = []string{"Title", "Slug", "Category", "Excerpt"}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := []Result{}
	for _, hit := range res.Hits {
		r := Result{
			ID:        hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}
		if v, ok := hit.Fields["Title"].(string); ok {
			r.Title = v
		}
		if v, ok := hit.Fields["Slug"].(string); ok {
			r.Slug = v
		}
		if v, ok := hit.Fields["Category"].(string); ok {
			r.Category = v
		}
		if v, ok := hit.Fields["Excerpt"].(string); ok {
			r.Excerpt = v
		}
		results = append(results, r)
	}
	return results, nil
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
