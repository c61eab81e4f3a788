package notion

import "shelflife/internal/post"

// Filter is a property-filter object, kept as data so the per-category query
// predicates are a table rather than copy-pasted request builders.
type Filter map[string]any

func And(filters ...Filter) Filter {
	return Filter{"and": filters}
}

func Or(filters ...Filter) Filter {
	return Filter{"or": filters}
}

func StatusEquals(property, value string) Filter {
	return Filter{
		"property": property,
		"status":   map[string]any{"equals": value},
	}
}

func MultiSelectContains(property, value string) Filter {
	return Filter{
		"property":     property,
		"multi_select": map[string]any{"contains": value},
	}
}

func TitleNotEmpty(property string) Filter {
	return Filter{
		"property": property,
		"title":    map[string]any{"is_not_empty": true},
	}
}

// FilterConfig names the database properties queries are built against and
// the label subsets each category's filter matches on.
type FilterConfig struct {
	StatusProperty     string
	ReadyStatus        string
	TitleProperty      string
	DateProperty       string
	BookReviewProperty string
	UKLifeProperty     string

	BookReviewFilterLabels []string
	UKLifeFilterLabels     []string
	LifeBlogFilterLabels   []string
}

// DefaultFilterConfig matches the property names and filter label subsets the
// production database uses.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		StatusProperty:     "Status",
		ReadyStatus:        "Ready for publish",
		TitleProperty:      "Aa Post name",
		DateProperty:       "New post date",
		BookReviewProperty: "讀書心得",
		UKLifeProperty:     "人生其他",

		BookReviewFilterLabels: []string{"讀書心得", "一人公司", "HerRead", "Book"},
		UKLifeFilterLabels:     []string{"看房紀錄", "居家裝修", "房產知識"},
		LifeBlogFilterLabels: []string{
			"倫敦生活", "倫敦育兒", "母職生活", "個人議題",
			"Daily Life", "Personal Thoughts", "Being a Mother",
		},
	}
}

// CategoryFilter returns the category-specific predicate, or nil when the
// category has no dedicated filter (the caller then queries on status alone).
func (fc FilterConfig) CategoryFilter(category post.Category) Filter {
	var property string
	var labels []string

	switch category {
	case post.CategoryBookReviews:
		property, labels = fc.BookReviewProperty, fc.BookReviewFilterLabels
	case post.CategoryUKLife:
		property, labels = fc.UKLifeProperty, fc.UKLifeFilterLabels
	case post.CategoryLifeBlog:
		property, labels = fc.UKLifeProperty, fc.LifeBlogFilterLabels
	default:
		return nil
	}

	filters := make([]Filter, 0, len(labels))
	for _, l := range labels {
		filters = append(filters, MultiSelectContains(property, l))
	}
	if len(filters) == 0 {
		return nil
	}
	return Or(filters...)
}

// ListFilter combines the category predicate with the published-status gate.
func (fc FilterConfig) ListFilter(category post.Category) Filter {
	status := StatusEquals(fc.StatusProperty, fc.ReadyStatus)
	if cat := fc.CategoryFilter(category); cat != nil {
		return And(cat, status)
	}
	return status
}

// SlugLookupFilter is the predicate for slug lookups: published, non-empty
// title, plus the category predicate. Slug matching itself happens client
// side, since the database has no slug property.
func (fc FilterConfig) SlugLookupFilter(category post.Category) Filter {
	status := StatusEquals(fc.StatusProperty, fc.ReadyStatus)
	title := TitleNotEmpty(fc.TitleProperty)
	if cat := fc.CategoryFilter(category); cat != nil {
		return And(status, title, cat)
	}
	return And(status, title)
}
