// Package server is the HTTP surface: the JSON API, the webhook ingestion
// endpoints, the public HTML pages and the debug/introspection handlers.
package server

import (
	"context"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shelflife/internal/importer"
	"shelflife/internal/notion"
	"shelflife/internal/post"
	"shelflife/internal/query"
)

// Publisher writes new posts back to the live content source. *notion.Service
// satisfies it.
type Publisher interface {
	Configured() bool
	CreatePost(ctx context.Context, in notion.CreatePostInput) (*post.Post, error)
}

type Config struct {
	ProductionMode    bool
	SiteURL           string
	AdminPasswordHash string
}

type Server struct {
	logger        *log.Logger
	query         *query.Service
	mapper        *post.Mapper
	publisher     Publisher
	importer      *importer.Importer
	config        Config
	templateCache map[string]*template.Template
}

func NewServer(logger *log.Logger, q *query.Service, mapper *post.Mapper, publisher Publisher, imp *importer.Importer, config Config) (*Server, error) {
	s := &Server{
		logger:    logger,
		query:     q,
		mapper:    mapper,
		publisher: publisher,
		importer:  imp,
		config:    config,
	}
	if err := s.loadTemplates(); err != nil {
		return nil, err
	}
	if !s.config.ProductionMode {
		s.logger.Printf("Server initialized with %d templates", len(s.templateCache))
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	staticFS, err := fs.Sub(webContent, "static")
	if err != nil {
		// The embed layout is fixed at compile time; this cannot happen on a
		// correctly built binary.
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// JSON API
	mux.HandleFunc("GET /api/posts/book-reviews", s.handleListBookReviews)
	mux.HandleFunc("GET /api/posts/uklife", s.handleListUKLife)
	mux.HandleFunc("GET /api/posts/search", s.handleSearch)
	mux.HandleFunc("GET /api/posts/{category}/{slug}", s.handleGetPost)
	mux.HandleFunc("GET /api/categories/{category}/tags", s.handleCategoryTags)
	mux.HandleFunc("GET /api/categories/{category}/sub-topics", s.handleCategorySubTopics)

	// Webhooks and ingestion
	mux.HandleFunc("POST /api/webhook/make-posts", s.handleMakePosts)
	mux.HandleFunc("GET /api/webhook/make-posts", s.handleWebhookStatus)
	mux.HandleFunc("POST /api/webhook/notion-sync", s.handleNotionSync)
	mux.HandleFunc("POST /api/webhook/publish", s.handlePublish)
	mux.HandleFunc("POST /api/import/rss", s.requireAdmin(s.handleImportRSS))

	// Introspection
	mux.HandleFunc("GET /api/debug/cache", s.requireAdmin(s.handleDebugCache))
	mux.HandleFunc("GET /debug/stats", s.requireAdmin(s.handleDebugStats))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Feeds and HTML pages
	mux.HandleFunc("GET /feed/{feed}", s.handleFeed)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /book-reviews", s.handleCategoryPage)
	mux.HandleFunc("GET /uklife", s.handleCategoryPage)
	// The life vertical used to live at /life-blog; keep old links working.
	mux.Handle("GET /life-blog", http.RedirectHandler("/uklife", http.StatusMovedPermanently))
	mux.HandleFunc("GET /{category}/{slug}", s.handlePostPage)
	mux.HandleFunc("/", s.handle404)

	return requestLogger(s.logger, s.config.ProductionMode, gzipMiddleware(mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handle404(w http.ResponseWriter, r *http.Request) {
	s.logger.Printf("404 for path: %s", r.URL.Path)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := s.renderTemplate(w, "404.html", map[string]any{"Title": "Not Found"}); err != nil {
		s.logger.Printf("Error rendering 404 template: %v", err)
		http.Error(w, "404 Page Not Found", http.StatusNotFound)
	}
}

func (s *Server) Start(addr string) error {
	s.logger.Printf("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Routes())
}
