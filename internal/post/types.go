// Package post holds the blog domain model: the normalized Post record,
// category constants, slug generation, the webhook record mapper, and the
// label-based categorizer.
package post

import "time"

// Category is one of the two publishing verticals or a fallback bucket.
type Category string

const (
	CategoryBookReviews Category = "book-reviews"
	CategoryUKLife      Category = "uklife"
	CategoryLifeBlog    Category = "life-blog"
	CategoryGeneral     Category = "general"
)

// ParseCategory returns the Category for a path/query value.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryBookReviews, CategoryUKLife, CategoryLifeBlog, CategoryGeneral:
		return Category(s), true
	}
	return "", false
}

// Post is the denormalized record every source (Notion query, webhook
// delivery, RSS import) is mapped into. JSON field names match the payloads
// the site has always emitted, so existing consumers keep working.
type Post struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	Excerpt         string    `json:"excerpt"`
	Category        Category  `json:"category"`
	FeaturedImage   string    `json:"featured_image"`
	Tags            []string  `json:"tags"`
	Author          string    `json:"author"`
	SubTopic        string    `json:"sub_topic"`
	Pinned          bool      `json:"pinned"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PublishedAt     time.Time `json:"published_at"`
	NotionURL       string    `json:"notion_url"`
	OriginalPostURL string    `json:"original_post_url"`
	LastSynced      time.Time `json:"last_synced"`
}
