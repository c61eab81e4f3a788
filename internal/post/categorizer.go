package post

import "strings"

// Label sets the two verticals are recognized by. These mirror the
// multi-select options of the upstream content database and can be overridden
// from a config file; they are never mutated at runtime.
var (
	DefaultUKLifeLabels = []string{
		"倫敦生活",
		"倫敦育兒",
		"母職生活",
		"英國私立",
		"英國旅遊",
		"個人議題",
		"Daily Life",
		"Culture & Society",
		"Outdoor Activities",
		"Edinburgh",
		"London Afternoon Tea",
		"London restaurants",
		"London never gets boring",
		"Travel with kids in UK",
		"Travel with kids abroad",
		"Raising kids in London",
		"Oversea family",
		"Being a Mother",
		"Personal Thoughts",
		"看房紀錄",
		"居家裝修",
		"房產知識",
	}

	DefaultBookReviewLabels = []string{
		"讀書心得",
		"一人公司",
		"HerRead",
		"Taiwan and Transitional Justice",
		"Parenting",
		"Business and Startups",
		"Life and Finance",
		"Science Fiction",
		"Philosophy",
		"Fiction",
		"Classic",
		"Contemporary",
		"Humor",
		"Adventure",
		"Reading List",
		"Poems",
		"Book",
	}
)

// Keyword fragments that classify a record even when none of its tags match a
// known label. Matched case-insensitively against title, tags and content.
var (
	bookKeywords   = []string{"book", "讀書", "reading", "review"}
	ukLifeKeywords = []string{"life", "uk", "倫敦"}
)

// Categorizer assigns each mapped record to exactly one category. The book
// check runs first, so a record matching both verticals lands in book-reviews.
type Categorizer struct {
	bookLabels   map[string]struct{}
	ukLifeLabels map[string]struct{}
	fallback     Category
}

// NewCategorizer builds a categorizer from explicit label sets. The fallback
// category is used when neither vertical matches; upstream variants disagreed
// on this default, so it is an explicit configuration choice here.
func NewCategorizer(bookLabels, ukLifeLabels []string, fallback Category) *Categorizer {
	c := &Categorizer{
		bookLabels:   make(map[string]struct{}, len(bookLabels)),
		ukLifeLabels: make(map[string]struct{}, len(ukLifeLabels)),
		fallback:     fallback,
	}
	for _, l := range bookLabels {
		c.bookLabels[l] = struct{}{}
	}
	for _, l := range ukLifeLabels {
		c.ukLifeLabels[l] = struct{}{}
	}
	if c.fallback == "" {
		c.fallback = CategoryGeneral
	}
	return c
}

// DefaultCategorizer uses the built-in label sets and the general fallback.
func DefaultCategorizer() *Categorizer {
	return NewCategorizer(DefaultBookReviewLabels, DefaultUKLifeLabels, CategoryGeneral)
}

// Fallback reports the configured fallback category.
func (c *Categorizer) Fallback() Category { return c.fallback }

// Categorize assigns a category based on the record's tags, title and content.
// Total over any record; never returns an empty category.
func (c *Categorizer) Categorize(p *Post) Category {
	title := strings.ToLower(p.Title)
	tags := strings.ToLower(strings.Join(p.Tags, " "))
	content := strings.ToLower(p.Content)

	if c.tagsIntersect(p.Tags, c.bookLabels) || containsAny(title+" "+tags+" "+content, bookKeywords) {
		return CategoryBookReviews
	}
	if c.tagsIntersect(p.Tags, c.ukLifeLabels) || containsAny(title+" "+tags, ukLifeKeywords) {
		return CategoryUKLife
	}
	return c.fallback
}

func (c *Categorizer) tagsIntersect(tags []string, set map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
