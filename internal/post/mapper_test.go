package post

import (
	"reflect"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestMapEmptyRecord(t *testing.T) {
	m := NewMapper(nil, "", fixedNow)
	p := m.Map(map[string]any{}, 3)

	if p.Title != "Untitled Post" {
		t.Errorf("title = %q, want default", p.Title)
	}
	if p.Slug != "untitled-post" {
		t.Errorf("slug = %q, want untitled-post", p.Slug)
	}
	if p.Content == "" || p.Excerpt == "" || p.Author == "" || p.FeaturedImage == "" {
		t.Errorf("expected all fallbacks populated, got %+v", p)
	}
	if p.ID == "" {
		t.Error("expected generated id")
	}
	if p.Category == "" {
		t.Error("category must never be absent")
	}
	if !p.PublishedAt.Equal(fixedNow()) || !p.CreatedAt.Equal(fixedNow()) || !p.UpdatedAt.Equal(fixedNow()) {
		t.Errorf("timestamps should fall back to now, got %+v", p)
	}
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Errorf("tags should be empty non-nil, got %#v", p.Tags)
	}
}

func TestMapMakeShapedRecord(t *testing.T) {
	m := NewMapper(nil, "Yilung C", fixedNow)
	record := map[string]any{
		"Title":            "A Book Review",
		"Main Content":     "<p>Great book.</p>",
		"Photo URL":        "https://img.example/cover.png",
		"created_time":     "2024-01-15T09:00:00Z",
		"last_edited_time": "2024-02-01T10:30:00Z",
		"owner":            "Yilung C",
		"讀書心得":             []any{map[string]any{"name": "讀書心得"}, map[string]any{"name": "Fiction"}},
		"tags":             []any{"Fiction", "2024"},
		"pinned":           true,
		"Post URL":         "https://example.com/original",
	}

	p := m.Map(record, 0)

	if p.Title != "A Book Review" || p.Slug != "a-book-review" {
		t.Errorf("unexpected title/slug: %q / %q", p.Title, p.Slug)
	}
	if p.Content != "<p>Great book.</p>" {
		t.Errorf("content = %q", p.Content)
	}
	if p.FeaturedImage != "https://img.example/cover.png" {
		t.Errorf("featured_image = %q", p.FeaturedImage)
	}
	if !p.Pinned {
		t.Error("expected pinned")
	}
	wantTags := []string{"讀書心得", "Fiction", "2024"}
	if !reflect.DeepEqual(p.Tags, wantTags) {
		t.Errorf("tags = %#v, want %#v", p.Tags, wantTags)
	}
	if p.Category != CategoryBookReviews {
		t.Errorf("category = %q, want book-reviews", p.Category)
	}
	if got := p.CreatedAt.Format(time.RFC3339); got != "2024-01-15T09:00:00Z" {
		t.Errorf("created_at = %s", got)
	}
	if got := p.PublishedAt.Format(time.RFC3339); got != "2024-01-15T09:00:00Z" {
		t.Errorf("published_at should fall back to created_time, got %s", got)
	}
	if p.OriginalPostURL != "https://example.com/original" {
		t.Errorf("original_post_url = %q", p.OriginalPostURL)
	}
}

func TestMapTagDeduplication(t *testing.T) {
	m := NewMapper(nil, "", fixedNow)
	record := map[string]any{
		"title":      "UK life update",
		"other_life": "倫敦生活",
		"tags":       []any{"倫敦生活", "", "Travel", "Travel"},
	}
	p := m.Map(record, 0)

	want := []string{"倫敦生活", "Travel"}
	if !reflect.DeepEqual(p.Tags, want) {
		t.Errorf("tags = %#v, want %#v", p.Tags, want)
	}
	if p.Category != CategoryUKLife {
		t.Errorf("category = %q, want uklife", p.Category)
	}
	if p.SubTopic != "倫敦生活" {
		t.Errorf("sub_topic = %q, want 倫敦生活", p.SubTopic)
	}
}

func TestMapSubTopicFromArrayValue(t *testing.T) {
	m := NewMapper(nil, "", fixedNow)
	record := map[string]any{
		"title":      "Flat hunting notes",
		"other_life": []any{"看房紀錄", "居家裝修"},
	}
	p := m.Map(record, 0)
	if p.SubTopic != "看房紀錄" {
		t.Errorf("sub_topic = %q, want first array element", p.SubTopic)
	}
}

func TestMapFallbackChainOrder(t *testing.T) {
	m := NewMapper(nil, "", fixedNow)
	// "title" is present but empty, so "name" must win.
	record := map[string]any{
		"title": "",
		"name":  "From Name Field",
	}
	p := m.Map(record, 0)
	if p.Title != "From Name Field" {
		t.Errorf("title = %q, want name-field value", p.Title)
	}
}

func TestMapPinnedCoercion(t *testing.T) {
	m := NewMapper(nil, "", fixedNow)
	for _, v := range []any{true, "true", float64(1)} {
		p := m.Map(map[string]any{"title": "x", "pinned": v}, 0)
		if !p.Pinned {
			t.Errorf("pinned = false for %#v", v)
		}
	}
	p := m.Map(map[string]any{"title": "x", "pinned": false}, 0)
	if p.Pinned {
		t.Error("pinned = true for false input")
	}
}

func TestMapAllPreservesOrder(t *testing.T) {
	m := NewMapper(nil, "", fixedNow)
	records := []map[string]any{
		{"title": "first"},
		{"title": "second"},
	}
	posts := m.MapAll(records)
	if len(posts) != 2 || posts[0].Title != "first" || posts[1].Title != "second" {
		t.Errorf("unexpected order: %+v", posts)
	}
}
