package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/bcrypt"

	"shelflife/internal/importer"
	"shelflife/internal/notion"
	"shelflife/internal/post"
	"shelflife/internal/query"
	"shelflife/internal/search"
	"shelflife/internal/store"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// stubPublisher lets publish tests run without upstream credentials.
type stubPublisher struct {
	configured bool
	created    *notion.CreatePostInput
	err        error
}

func (p *stubPublisher) Configured() bool { return p.configured }

func (p *stubPublisher) CreatePost(ctx context.Context, in notion.CreatePostInput) (*post.Post, error) {
	p.created = &in
	if p.err != nil {
		return nil, p.err
	}
	return &post.Post{ID: "created-1", Title: in.Title, Slug: post.Slugify(in.Title), Category: in.Category}, nil
}

func newTestServer(t *testing.T, publisher Publisher, config Config) (*Server, http.Handler) {
	t.Helper()
	logger := testLogger()

	idx, err := search.New()
	if err != nil {
		t.Fatalf("search.New: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	client := notion.NewClient("", "", logger)
	source := notion.NewService(client, notion.NewPageMapper(nil, "", nil), notion.DefaultFilterConfig(), logger)
	q := query.NewService(source, store.NewMemory(nil), idx, 0, logger)
	mapper := post.NewMapper(nil, "", nil)
	imp := importer.New(mapper, q, logger)

	if publisher == nil {
		publisher = source
	}
	s, err := NewServer(logger, q, mapper, publisher, imp, config)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, s.Routes()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var decoded map[string]any
	if strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

const webhookPayload = `[
	{
		"title": "Thinking, Fast and Slow",
		"content": "<p>Kahneman on judgment and decision making.</p>",
		"reading_exp": ["讀書心得", "Philosophy"],
		"pinned": true,
		"date": "2024-03-15"
	},
	{
		"title": "Settling in London",
		"content": "<p>First weeks in the UK.</p>",
		"other_life": ["倫敦生活"],
		"date": "2024-04-01"
	}
]`

func seedPosts(t *testing.T, handler http.Handler) {
	t.Helper()
	w, resp := doJSON(t, handler, http.MethodPost, "/api/webhook/make-posts", webhookPayload)
	if w.Code != http.StatusOK {
		t.Fatalf("seed webhook: %d %s", w.Code, w.Body.String())
	}
	if resp["success"] != true {
		t.Fatalf("seed webhook response: %#v", resp)
	}
}

func TestWebhookMakePosts(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{SiteURL: "http://localhost:8080"})

	w, resp := doJSON(t, handler, http.MethodPost, "/api/webhook/make-posts", webhookPayload)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	counts, _ := resp["counts"].(map[string]any)
	if counts["book-reviews"] != float64(1) || counts["uklife"] != float64(1) {
		t.Errorf("counts = %#v", counts)
	}
	if resp["total"] != float64(2) {
		t.Errorf("total = %v", resp["total"])
	}

	// Senders can probe the cache with a GET on the same path.
	w, resp = doJSON(t, handler, http.MethodGet, "/api/webhook/make-posts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status probe: %d", w.Code)
	}
	info, _ := resp["cacheInfo"].(map[string]any)
	if info["totalPosts"] != float64(2) {
		t.Errorf("cacheInfo = %#v", info)
	}
}

func TestWebhookMakePostsPayloadShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"single object", `{"title": "Solo", "reading_exp": ["讀書心得"]}`, http.StatusOK},
		{"wrapped array", `{"posts": [{"title": "Wrapped"}]}`, http.StatusOK},
		{"empty array", `[]`, http.StatusBadRequest},
		{"malformed", `{"title": `, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, handler := newTestServer(t, nil, Config{})
			w, _ := doJSON(t, handler, http.MethodPost, "/api/webhook/make-posts", tt.body)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestListBookReviews(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	w, resp := doJSON(t, handler, http.MethodGet, "/api/posts/book-reviews", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp["success"] != true || resp["category"] != "book-reviews" {
		t.Errorf("envelope = %#v", resp)
	}
	if resp["source"] != "cache" {
		t.Errorf("source = %v, want cache on an unconfigured deployment", resp["source"])
	}
	if resp["count"] != float64(1) {
		t.Errorf("count = %v", resp["count"])
	}
	posts, _ := resp["posts"].([]any)
	if len(posts) != 1 {
		t.Fatalf("posts = %#v", posts)
	}
	first, _ := posts[0].(map[string]any)
	if first["slug"] != "thinking-fast-and-slow" || first["pinned"] != true {
		t.Errorf("post = %#v", first)
	}
	tags, _ := resp["uniqueTags"].([]any)
	if len(tags) != 2 {
		t.Errorf("uniqueTags = %#v", tags)
	}
	if _, present := resp["warning"]; present {
		t.Errorf("cache reads must not warn: %#v", resp)
	}
}

func TestListUKLifeSubTopics(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	w, resp := doJSON(t, handler, http.MethodGet, "/api/posts/uklife", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if _, hasTags := resp["uniqueTags"]; hasTags {
		t.Error("uklife listing must expose sub-topics, not tags")
	}
	if _, hasSubTopics := resp["uniqueSubTopics"]; !hasSubTopics {
		t.Errorf("envelope = %#v", resp)
	}
}

func TestListLimit(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})

	records := make([]string, 0, 5)
	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		records = append(records, `{"title": "`+title+`", "reading_exp": ["讀書心得"]}`)
	}
	w, _ := doJSON(t, handler, http.MethodPost, "/api/webhook/make-posts", "["+strings.Join(records, ",")+"]")
	if w.Code != http.StatusOK {
		t.Fatalf("seed: %d", w.Code)
	}

	_, resp := doJSON(t, handler, http.MethodGet, "/api/posts/book-reviews?limit=2", "")
	if resp["count"] != float64(2) {
		t.Errorf("count = %v, want 2", resp["count"])
	}

	// Unusable limits fall back to the default.
	_, resp = doJSON(t, handler, http.MethodGet, "/api/posts/book-reviews?limit=bogus", "")
	if resp["count"] != float64(5) {
		t.Errorf("count = %v, want all 5", resp["count"])
	}
}

func TestGetPostBySlug(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	w, resp := doJSON(t, handler, http.MethodGet, "/api/posts/book-reviews/thinking-fast-and-slow", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	p, _ := resp["post"].(map[string]any)
	if p["title"] != "Thinking, Fast and Slow" {
		t.Errorf("post = %#v", p)
	}

	w, resp = doJSON(t, handler, http.MethodGet, "/api/posts/book-reviews/no-such-post", "")
	if w.Code != http.StatusNotFound || resp["success"] != false {
		t.Errorf("status = %d, body = %#v", w.Code, resp)
	}

	w, _ = doJSON(t, handler, http.MethodGet, "/api/posts/nonsense/some-slug", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown category status = %d", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	w, resp := doJSON(t, handler, http.MethodGet, "/api/posts/search?q=judgment", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if resp["count"] != float64(1) {
		t.Errorf("count = %v: %#v", resp["count"], resp)
	}
	results, _ := resp["results"].([]any)
	first, _ := results[0].(map[string]any)
	if first["slug"] != "thinking-fast-and-slow" {
		t.Errorf("hit = %#v", first)
	}

	w, _ = doJSON(t, handler, http.MethodGet, "/api/posts/search", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", w.Code)
	}
}

func TestCategoryFacets(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	w, resp := doJSON(t, handler, http.MethodGet, "/api/categories/book-reviews/tags", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	tags, _ := resp["uniqueTags"].([]any)
	if len(tags) != 2 {
		t.Errorf("uniqueTags = %#v", tags)
	}

	w, resp = doJSON(t, handler, http.MethodGet, "/api/categories/uklife/sub-topics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if _, ok := resp["uniqueSubTopics"]; !ok {
		t.Errorf("envelope = %#v", resp)
	}
}

func TestNotionSyncUnconfigured(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	w, resp := doJSON(t, handler, http.MethodPost, "/api/webhook/notion-sync", `{"category": "book-reviews"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if resp["success"] != false {
		t.Errorf("body = %#v", resp)
	}
}

func TestPublishValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing title", `{"category": "book"}`, http.StatusBadRequest},
		{"bad category", `{"title": "X", "category": "poetry"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, handler := newTestServer(t, &stubPublisher{configured: true}, Config{})
			w, _ := doJSON(t, handler, http.MethodPost, "/api/webhook/publish", tt.body)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestPublishCreatesPost(t *testing.T) {
	pub := &stubPublisher{configured: true}
	_, handler := newTestServer(t, pub, Config{})

	w, resp := doJSON(t, handler, http.MethodPost, "/api/webhook/publish",
		`{"title": "New Review", "content": "<p>Body</p>", "category": "book", "tags": ["Fiction"], "pinned": true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if resp["success"] != true {
		t.Errorf("body = %#v", resp)
	}
	if pub.created == nil || pub.created.Category != post.CategoryBookReviews || !pub.created.Pinned {
		t.Errorf("publisher input = %+v", pub.created)
	}
}

func TestPublishUnconfigured(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	w, _ := doJSON(t, handler, http.MethodPost, "/api/webhook/publish", `{"title": "X", "category": "book"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestPublishUpstreamFailure(t *testing.T) {
	pub := &stubPublisher{configured: true, err: errors.New("api error 500")}
	_, handler := newTestServer(t, pub, Config{})
	w, _ := doJSON(t, handler, http.MethodPost, "/api/webhook/publish", `{"title": "X", "category": "life"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestIndexPage(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parse HTML: %v", err)
	}
	if doc.Find(".category-section").Length() != 2 {
		t.Errorf("expected both category sections")
	}
	link, _ := doc.Find(`a[href="/book-reviews/thinking-fast-and-slow"]`).Attr("href")
	if link == "" {
		t.Error("seeded post not linked from index")
	}
}

func TestCategoryPageGrouping(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/uklife", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parse HTML: %v", err)
	}
	if doc.Find(".post-group h2").First().Text() != "倫敦生活" {
		t.Errorf("group heading = %q", doc.Find(".post-group h2").First().Text())
	}
	if doc.Find(".post-card").Length() != 1 {
		t.Errorf("post cards = %d", doc.Find(".post-card").Length())
	}
}

func TestPostPage(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/book-reviews/thinking-fast-and-slow", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parse HTML: %v", err)
	}
	if doc.Find("article.post h1").Text() != "Thinking, Fast and Slow" {
		t.Errorf("title = %q", doc.Find("article.post h1").Text())
	}
}

func TestLifeBlogRedirectsToUKLife(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	req := httptest.NewRequest(http.MethodGet, "/life-blog", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/uklife" {
		t.Errorf("location = %q", loc)
	}
}

func TestUnknownPageRenders404(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	req := httptest.NewRequest(http.MethodGet, "/no-such-page", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "404") {
		t.Error("404 page body missing")
	}
}

func TestFeedEndpoint(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{SiteURL: "https://example.com"})
	seedPosts(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/feed/book-reviews.xml", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/rss+xml") {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<rss version=\"2.0\">") {
		t.Error("missing rss element")
	}
	if !strings.Contains(body, "https://example.com/book-reviews/thinking-fast-and-slow") {
		t.Errorf("missing item link: %s", body)
	}
}

func TestDebugCache(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	seedPosts(t, handler)

	w, resp := doJSON(t, handler, http.MethodGet, "/api/debug/cache", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	info, _ := resp["cacheInfo"].(map[string]any)
	counts, _ := info["counts"].(map[string]any)
	if counts["book-reviews"] != float64(1) || counts["uklife"] != float64(1) {
		t.Errorf("counts = %#v", counts)
	}
	if resp["sourceConfigured"] != false {
		t.Errorf("sourceConfigured = %v", resp["sourceConfigured"])
	}
}

func TestDebugAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	_, handler := newTestServer(t, nil, Config{AdminPasswordHash: string(hash)})

	req := httptest.NewRequest(http.MethodGet, "/api/debug/cache", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/debug/cache", nil)
	req.SetBasicAuth("admin", "wrong")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/debug/cache", nil)
	req.SetBasicAuth("admin", "letmein")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	w, resp := doJSON(t, handler, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || resp["status"] != "ok" {
		t.Errorf("status = %d body = %#v", w.Code, resp)
	}
}

func TestGzipResponses(t *testing.T) {
	_, handler := newTestServer(t, nil, Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if enc := w.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Errorf("content encoding = %q", enc)
	}
}
