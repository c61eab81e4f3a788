package post

import (
	"fmt"
	"strings"
	"time"
)

// Candidate source keys per target field. The webhook sender's schema has
// changed across integration attempts, so every field is resolved through an
// ordered first-present-non-empty chain instead of a fixed contract.
var fieldCandidates = map[string][]string{
	"id":             {"id", "ID", "_id"},
	"title":          {"title", "Title", "name", "blog_value", "Blog"},
	"content":        {"content", "Content", "description", "blog_value", "Main Content"},
	"featured_image": {"photo_url", "Photo URL", "image"},
	"published_at":   {"created_time", "created_at", "date"},
	"created_at":     {"created_time", "created_at"},
	"updated_at":     {"last_edited_time", "updated_at"},
	"author":         {"author", "owner"},
	"sub_topic":      {"sub_topic", "category", "other_life", "Other Life"},
	"notion_url":     {"notion_url", "public_url"},
	"post_url":       {"post_url", "Post URL"},
	"pinned":         {"pinned"},
}

// Tag-bearing source keys, in priority order. Values may be a single string,
// an array of strings, or an array of {name: ...} objects.
var tagCandidates = [][]string{
	{"reading_exp", "Reading Experience", "讀書心得"},
	{"other_life", "Other Life", "人生其他"},
	{"tags"},
}

const (
	defaultTitle    = "Untitled Post"
	defaultContent  = "This post was synced from an external source."
	defaultImage    = "/placeholder.svg?height=400&width=600&text=Blog+Post"
	defaultSubTopic = "General"
	excerptLength   = 150
)

// Mapper converts raw webhook records into normalized Posts and assigns their
// category. It is a pure transform; the clock is injected for tests.
type Mapper struct {
	categorizer   *Categorizer
	defaultAuthor string
	now           func() time.Time
}

// NewMapper builds a mapper. A nil now defaults to time.Now.
func NewMapper(categorizer *Categorizer, defaultAuthor string, now func() time.Time) *Mapper {
	if categorizer == nil {
		categorizer = DefaultCategorizer()
	}
	if defaultAuthor == "" {
		defaultAuthor = "Editor"
	}
	if now == nil {
		now = time.Now
	}
	return &Mapper{categorizer: categorizer, defaultAuthor: defaultAuthor, now: now}
}

// Map converts a single raw record. It never fails: a record with none of the
// expected keys still produces a complete Post with safe defaults. index
// disambiguates generated IDs within one delivery.
func (m *Mapper) Map(record map[string]any, index int) Post {
	now := m.now().UTC()

	title := stringField(record, "title")
	if title == "" {
		title = defaultTitle
	}
	content := stringField(record, "content")
	if content == "" {
		content = defaultContent
	}

	id := stringField(record, "id")
	if id == "" {
		id = fmt.Sprintf("post-%d-%d", now.UnixMilli(), index)
	}

	author := stringField(record, "author")
	if author == "" {
		author = m.defaultAuthor
	}
	subTopic := stringField(record, "sub_topic")
	if subTopic == "" {
		subTopic = defaultSubTopic
	}
	image := stringField(record, "featured_image")
	if image == "" {
		image = defaultImage
	}

	p := Post{
		ID:              id,
		Title:           title,
		Slug:            Slugify(title),
		Content:         content,
		Excerpt:         makeExcerpt(title),
		FeaturedImage:   image,
		Tags:            collectTags(record),
		Author:          author,
		SubTopic:        subTopic,
		Pinned:          boolField(record, "pinned"),
		CreatedAt:       timeField(record, "created_at", now),
		UpdatedAt:       timeField(record, "updated_at", now),
		PublishedAt:     timeField(record, "published_at", now),
		NotionURL:       stringField(record, "notion_url"),
		OriginalPostURL: stringField(record, "post_url"),
		LastSynced:      now,
	}
	p.Category = m.categorizer.Categorize(&p)
	return p
}

// MapAll converts a batch, preserving arrival order.
func (m *Mapper) MapAll(records []map[string]any) []Post {
	posts := make([]Post, 0, len(records))
	for i, r := range records {
		posts = append(posts, m.Map(r, i))
	}
	return posts
}

func makeExcerpt(title string) string {
	if runes := []rune(title); len(runes) > excerptLength {
		title = string(runes[:excerptLength])
	}
	return title + "..."
}

// firstValue returns the first present, non-nil, non-empty value among the
// candidate keys.
func firstValue(record map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := record[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func stringField(record map[string]any, field string) string {
	v, ok := firstValue(record, fieldCandidates[field])
	if !ok {
		return ""
	}
	return stringValue(v)
}

// stringValue coerces a record value to a string. Array values resolve to
// their first usable element, so a multi-select like other_life yields its
// leading label.
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case float64:
		return fmt.Sprintf("%v", s)
	case []string:
		if len(s) > 0 {
			return s[0]
		}
	case []any:
		for _, item := range s {
			if out := stringValue(item); out != "" {
				return out
			}
		}
	case map[string]any:
		if name, ok := s["name"].(string); ok {
			return name
		}
	}
	return ""
}

func boolField(record map[string]any, field string) bool {
	v, ok := firstValue(record, fieldCandidates[field])
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true") || b == "1"
	case float64:
		return b != 0
	}
	return false
}

// Accepted timestamp layouts, most specific first. Anything unparseable falls
// through to the delivery time so published_at is never zero.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func timeField(record map[string]any, field string, fallback time.Time) time.Time {
	v, ok := firstValue(record, fieldCandidates[field])
	if !ok {
		return fallback
	}
	s, isStr := v.(string)
	if !isStr {
		return fallback
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

// collectTags flattens every tag-bearing field into one deduplicated list,
// dropping empty entries and preserving first-seen order.
func collectTags(record map[string]any) []string {
	var tags []string
	for _, keys := range tagCandidates {
		v, ok := firstValue(record, keys)
		if !ok {
			continue
		}
		switch tv := v.(type) {
		case string:
			tags = append(tags, tv)
		case []string:
			tags = append(tags, tv...)
		case []any:
			for _, item := range tv {
				switch it := item.(type) {
				case string:
					tags = append(tags, it)
				case map[string]any:
					if name, ok := it["name"].(string); ok {
						tags = append(tags, name)
					}
				}
			}
		}
	}

	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return []string{}
	}
	return out
}
