// Package config resolves runtime configuration from the environment and an
// optional label-set file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     int
	DataPath string
	DBPath   string

	// Store backend for webhook-ingested posts: memory, file or sqlite.
	StoreBackend string
	StorePath    string

	// Direct content-source credentials. Absence disables the direct-query
	// path; handlers then serve from the cache only.
	NotionAPIKey    string
	NotionDatabase  string
	RefreshInterval time.Duration

	// Categorization knobs. FallbackCategory stays empty unless the
	// environment sets it, so a labels-file value is not masked.
	FallbackCategory string
	DefaultAuthor    string
	LabelsPath       string

	SiteURL           string
	AdminPasswordHash string
	ProductionMode    bool
}

func GetConfig() Config {
	config := Config{
		Port:          8080,
		DataPath:      "data",
		DBPath:        "data/shelflife.db",
		StoreBackend:  "memory",
		StorePath:     "data/posts.json",
		DefaultAuthor: "Editor",
		SiteURL:       "http://localhost:8080",
	}

	if port := os.Getenv("SHELFLIFE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}
	if v := os.Getenv("SHELFLIFE_DATA_PATH"); v != "" {
		config.DataPath = v
	}
	if v := os.Getenv("SHELFLIFE_DB_PATH"); v != "" {
		config.DBPath = v
	}
	if v := os.Getenv("SHELFLIFE_STORE"); v != "" {
		config.StoreBackend = v
	}
	if v := os.Getenv("SHELFLIFE_STORE_PATH"); v != "" {
		config.StorePath = v
	}
	config.NotionAPIKey = os.Getenv("NOTION_API_KEY")
	config.NotionDatabase = os.Getenv("NOTION_DATABASE_ID")
	if v := os.Getenv("SHELFLIFE_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.RefreshInterval = d
		}
	}
	if v := os.Getenv("SHELFLIFE_FALLBACK_CATEGORY"); v != "" {
		config.FallbackCategory = v
	}
	if v := os.Getenv("SHELFLIFE_DEFAULT_AUTHOR"); v != "" {
		config.DefaultAuthor = v
	}
	config.LabelsPath = os.Getenv("SHELFLIFE_LABELS_PATH")
	if v := os.Getenv("SHELFLIFE_SITE_URL"); v != "" {
		config.SiteURL = v
	}
	config.AdminPasswordHash = os.Getenv("SHELFLIFE_ADMIN_PASSWORD_HASH")

	return config
}

func (c Config) GetAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}
