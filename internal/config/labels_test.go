package config

import (
	"os"
	"path/filepath"
	"testing"

	"shelflife/internal/post"
)

func TestLoadLabelsDefaults(t *testing.T) {
	labels, err := LoadLabels("")
	if err != nil {
		t.Fatalf("LoadLabels: %v", err)
	}
	if labels.BookReviewProperty != "讀書心得" || labels.UKLifeProperty != "人生其他" {
		t.Errorf("unexpected properties: %+v", labels)
	}
	if labels.FallbackCategory != "general" {
		t.Errorf("fallback = %q, want general", labels.FallbackCategory)
	}
	if len(labels.BookReviewLabels) == 0 || len(labels.UKLifeLabels) == 0 {
		t.Error("expected default label sets")
	}
}

func TestLoadLabelsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	content := `
fallback_category: uklife
book_review_labels:
  - Custom Book Label
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	labels, err := LoadLabels(path)
	if err != nil {
		t.Fatalf("LoadLabels: %v", err)
	}
	if labels.FallbackCategory != "uklife" {
		t.Errorf("fallback = %q", labels.FallbackCategory)
	}
	if len(labels.BookReviewLabels) != 1 || labels.BookReviewLabels[0] != "Custom Book Label" {
		t.Errorf("book labels = %#v", labels.BookReviewLabels)
	}
	// Omitted fields keep defaults.
	if len(labels.UKLifeLabels) == 0 {
		t.Error("uk life labels should keep defaults")
	}

	c := labels.Categorizer()
	p := post.Post{Title: "nothing matches", Tags: []string{"misc"}}
	if got := c.Categorize(&p); got != post.CategoryUKLife {
		t.Errorf("configured fallback not applied, got %q", got)
	}
}

func TestLoadLabelsBadFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	os.WriteFile(path, []byte("fallback_category: bogus\n"), 0644)
	if _, err := LoadLabels(path); err == nil {
		t.Error("expected error for unknown fallback category")
	}
}

func TestResolveLabelsPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	if err := os.WriteFile(path, []byte("fallback_category: uklife\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// A file value must take effect when the environment says nothing.
	labels, err := Config{LabelsPath: path}.ResolveLabels()
	if err != nil {
		t.Fatalf("ResolveLabels: %v", err)
	}
	if labels.FallbackCategory != "uklife" {
		t.Errorf("file fallback = %q, want uklife", labels.FallbackCategory)
	}

	// An explicit environment value wins over the file.
	labels, err = Config{LabelsPath: path, FallbackCategory: "book-reviews"}.ResolveLabels()
	if err != nil {
		t.Fatalf("ResolveLabels: %v", err)
	}
	if labels.FallbackCategory != "book-reviews" {
		t.Errorf("env fallback = %q, want book-reviews", labels.FallbackCategory)
	}

	// Neither set: the default stands.
	labels, err = Config{}.ResolveLabels()
	if err != nil {
		t.Fatalf("ResolveLabels: %v", err)
	}
	if labels.FallbackCategory != "general" {
		t.Errorf("default fallback = %q, want general", labels.FallbackCategory)
	}
}

func TestResolveLabelsBadEnvFallback(t *testing.T) {
	if _, err := (Config{FallbackCategory: "bogus"}).ResolveLabels(); err == nil {
		t.Error("expected error for unknown fallback category from the environment")
	}
}

func TestGetConfigDefaults(t *testing.T) {
	cfg := GetConfig()
	if cfg.Port != 8080 || cfg.StoreBackend != "memory" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.GetAddress() != ":8080" {
		t.Errorf("address = %q", cfg.GetAddress())
	}
}

func TestGetConfigEnvOverrides(t *testing.T) {
	t.Setenv("SHELFLIFE_PORT", "9000")
	t.Setenv("SHELFLIFE_STORE", "file")
	t.Setenv("SHELFLIFE_FALLBACK_CATEGORY", "uklife")
	t.Setenv("SHELFLIFE_REFRESH_INTERVAL", "5m")

	cfg := GetConfig()
	if cfg.Port != 9000 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.StoreBackend != "file" {
		t.Errorf("store = %q", cfg.StoreBackend)
	}
	if cfg.FallbackCategory != "uklife" {
		t.Errorf("fallback = %q", cfg.FallbackCategory)
	}
	if cfg.RefreshInterval.Minutes() != 5 {
		t.Errorf("refresh interval = %v", cfg.RefreshInterval)
	}
}
