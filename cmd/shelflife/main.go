package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"shelflife/internal/config"
	"shelflife/internal/database"
	"shelflife/internal/importer"
	"shelflife/internal/notion"
	"shelflife/internal/post"
	"shelflife/internal/query"
	"shelflife/internal/search"
	"shelflife/internal/server"
	"shelflife/internal/store"
)

var (
	// Version will be set during build
	Version = "dev"

	// Command line flags
	port     = flag.Int("port", 0, "Port to run the server on (default: 8080 or SHELFLIFE_PORT)")
	dbPath   = flag.String("db", "", "Path to database file (default: data/shelflife.db or SHELFLIFE_DB_PATH)")
	dataPath = flag.String("data", "", "Path to data directory (default: data or SHELFLIFE_DATA_PATH)")
	version  = flag.Bool("version", false, "Print version information")
	prodMode = flag.Bool("prod", false, "Enable production mode (quieter request logging)")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Shelflife version %s\n", Version)
		return
	}

	// Setup logging
	logger := log.New(os.Stdout, "shelflife: ", log.LstdFlags|log.Lshortfile)

	// Load .env if present, then resolve configuration from the environment
	if err := godotenv.Load(); err == nil {
		logger.Printf("Loaded environment from .env")
	}
	cfg := config.GetConfig()

	// Override with command line flags if provided
	if *port > 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	cfg.ProductionMode = *prodMode

	logger.Printf("Starting Shelflife v%s", Version)
	logger.Printf("Port: %d", cfg.Port)
	logger.Printf("Store backend: %s", cfg.StoreBackend)
	logger.Printf("Mode: %s", map[bool]string{true: "production", false: "development"}[cfg.ProductionMode])

	labels, err := cfg.ResolveLabels()
	if err != nil {
		logger.Fatalf("Failed to load label configuration: %v", err)
	}
	categorizer := labels.Categorizer()

	// Open sqlite only when the store actually needs it
	var db *database.DB
	if cfg.StoreBackend == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			logger.Fatalf("Failed to create database directory: %v", err)
		}
		db, err = database.NewDB(cfg.DBPath, database.DefaultConfig())
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
	}

	postStore, err := store.New(cfg.StoreBackend, cfg.StorePath, db)
	if err != nil {
		logger.Fatalf("Failed to initialize post store: %v", err)
	}

	index, err := search.New()
	if err != nil {
		logger.Fatalf("Failed to initialize search index: %v", err)
	}
	defer index.Close()

	// Content source: direct queries work only with credentials; without them
	// the site serves whatever the webhooks deliver.
	client := notion.NewClient(cfg.NotionAPIKey, cfg.NotionDatabase, logger)
	pageMapper := notion.NewPageMapper(categorizer, cfg.DefaultAuthor, nil)
	filters := notion.DefaultFilterConfig()
	filters.BookReviewProperty = labels.BookReviewProperty
	filters.UKLifeProperty = labels.UKLifeProperty
	source := notion.NewService(client, pageMapper, filters, logger)
	if !source.Configured() {
		logger.Printf("Notion credentials not set; serving from the cache only")
	}

	querySvc := query.NewService(source, postStore, index, cfg.RefreshInterval, logger)
	querySvc.Start()
	defer querySvc.Stop()

	// Warm the cache once at startup when direct queries are possible
	if source.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := querySvc.RefreshAll(ctx); err != nil {
			logger.Printf("Initial sync failed: %v", err)
		}
		cancel()
	}

	recordMapper := post.NewMapper(categorizer, cfg.DefaultAuthor, nil)
	imp := importer.New(recordMapper, querySvc, logger)

	srv, err := server.NewServer(logger, querySvc, recordMapper, source, imp, server.Config{
		ProductionMode:    cfg.ProductionMode,
		SiteURL:           cfg.SiteURL,
		AdminPasswordHash: cfg.AdminPasswordHash,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize server: %v", err)
	}

	if err := srv.Start(cfg.GetAddress()); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
