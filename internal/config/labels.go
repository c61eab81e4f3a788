package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"shelflife/internal/post"
)

// Labels is the categorization configuration: the two known label sets, the
// content-database property each set lives under, and the fallback category
// for records matching neither vertical.
type Labels struct {
	BookReviewProperty string   `yaml:"book_review_property"`
	UKLifeProperty     string   `yaml:"uk_life_property"`
	BookReviewLabels   []string `yaml:"book_review_labels"`
	UKLifeLabels       []string `yaml:"uk_life_labels"`
	FallbackCategory   string   `yaml:"fallback_category"`
}

// DefaultLabels mirrors the upstream database's multi-select options.
func DefaultLabels() Labels {
	return Labels{
		BookReviewProperty: "讀書心得",
		UKLifeProperty:     "人生其他",
		BookReviewLabels:   post.DefaultBookReviewLabels,
		UKLifeLabels:       post.DefaultUKLifeLabels,
		FallbackCategory:   string(post.CategoryGeneral),
	}
}

// LoadLabels reads a YAML label file, filling omitted fields from the
// defaults. An empty path returns the defaults unchanged.
func LoadLabels(path string) (Labels, error) {
	labels := DefaultLabels()
	if path == "" {
		return labels, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return labels, fmt.Errorf("read labels file %s: %w", path, err)
	}

	var loaded Labels
	if err := yaml.Unmarshal(b, &loaded); err != nil {
		return labels, fmt.Errorf("parse labels file %s: %w", path, err)
	}

	if loaded.BookReviewProperty != "" {
		labels.BookReviewProperty = loaded.BookReviewProperty
	}
	if loaded.UKLifeProperty != "" {
		labels.UKLifeProperty = loaded.UKLifeProperty
	}
	if len(loaded.BookReviewLabels) > 0 {
		labels.BookReviewLabels = loaded.BookReviewLabels
	}
	if len(loaded.UKLifeLabels) > 0 {
		labels.UKLifeLabels = loaded.UKLifeLabels
	}
	if loaded.FallbackCategory != "" {
		if _, ok := post.ParseCategory(loaded.FallbackCategory); !ok {
			return labels, fmt.Errorf("labels file %s: unknown fallback category %q", path, loaded.FallbackCategory)
		}
		labels.FallbackCategory = loaded.FallbackCategory
	}
	return labels, nil
}

// ResolveLabels loads the label file the config names and layers the
// environment fallback override on top. The override is validated the same
// way a file value is, so a typo fails loudly instead of becoming the
// categorizer fallback.
func (c Config) ResolveLabels() (Labels, error) {
	labels, err := LoadLabels(c.LabelsPath)
	if err != nil {
		return labels, err
	}
	if c.FallbackCategory != "" {
		if _, ok := post.ParseCategory(c.FallbackCategory); !ok {
			return labels, fmt.Errorf("SHELFLIFE_FALLBACK_CATEGORY: unknown category %q", c.FallbackCategory)
		}
		labels.FallbackCategory = c.FallbackCategory
	}
	return labels, nil
}

// Categorizer builds the categorizer these labels describe.
func (l Labels) Categorizer() *post.Categorizer {
	return post.NewCategorizer(l.BookReviewLabels, l.UKLifeLabels, post.Category(l.FallbackCategory))
}
