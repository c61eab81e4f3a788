package notion

import (
	"fmt"
	"time"

	"shelflife/internal/post"
)

const placeholderImage = "/placeholder.png?height=400&width=600"

// Property accessors. Each returns the zero value when the property is
// missing or of an unexpected type; the upstream schema has changed across
// integration attempts and a page must always map to a complete Post.

func (p Property) title() string {
	if len(p.Title) == 0 {
		return ""
	}
	return p.Title[0].PlainText
}

func (p Property) richText() string {
	if len(p.RichText) == 0 {
		return ""
	}
	return p.RichText[0].PlainText
}

func (p Property) selectName() string {
	if p.Select == nil {
		return ""
	}
	return p.Select.Name
}

func (p Property) statusName() string {
	if p.Status == nil {
		return ""
	}
	return p.Status.Name
}

func (p Property) multiSelect() []string {
	names := make([]string, 0, len(p.MultiSelect))
	for _, o := range p.MultiSelect {
		names = append(names, o.Name)
	}
	return names
}

func (p Property) dateStart() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Start
}

// fileURL returns the first file's URL, preferring hosted over external, or
// the placeholder when the property holds no files.
func (p Property) fileURL() string {
	if len(p.Files) > 0 {
		f := p.Files[0]
		if f.File != nil && f.File.URL != "" {
			return f.File.URL
		}
		if f.External != nil && f.External.URL != "" {
			return f.External.URL
		}
	}
	return placeholderImage
}

// PageMapper maps content-database pages into normalized posts.
type PageMapper struct {
	categorizer   *post.Categorizer
	defaultAuthor string
	now           func() time.Time
}

func NewPageMapper(categorizer *post.Categorizer, defaultAuthor string, now func() time.Time) *PageMapper {
	if categorizer == nil {
		categorizer = post.DefaultCategorizer()
	}
	if defaultAuthor == "" {
		defaultAuthor = "Editor"
	}
	if now == nil {
		now = time.Now
	}
	return &PageMapper{categorizer: categorizer, defaultAuthor: defaultAuthor, now: now}
}

// MapPage converts one page. Full page content needs a separate blocks fetch,
// so content is a synthetic summary built from the page's metadata.
func (m *PageMapper) MapPage(page Page) post.Post {
	props := page.Properties

	title := props["Aa Post name"].title()
	status := props["Status"].statusName()
	label := props["Label"].selectName()
	otherLifeLabels := props["人生其他"].multiSelect()
	bookReviewLabels := props["讀書心得"].multiSelect()
	platform := props["Platform"].selectName()
	contentType := props["Content type"].selectName()
	owner := props["Owner"].richText()
	postURL := props["Post URL"].URL
	pinned := props["Pinned"].Checkbox

	excerpt := props["Excerpt"].richText()
	if excerpt == "" {
		excerpt = truncateRunes(title, 150) + "..."
	}

	author := owner
	if author == "" {
		author = m.defaultAuthor
	}

	subTopic := label
	if len(otherLifeLabels) > 0 {
		subTopic = otherLifeLabels[0]
	}

	publishedAt := page.CreatedTime
	if start := props["New post date"].dateStart(); start != "" {
		if t, err := parseDate(start); err == nil {
			publishedAt = t
		}
	}

	tags := dedupeNonEmpty(append(
		[]string{platform, contentType, status, label},
		append(otherLifeLabels, bookReviewLabels...)...,
	))

	p := post.Post{
		ID:    page.ID,
		Title: title,
		Slug:  post.Slugify(title),
		Content: fmt.Sprintf(
			"<p>This post was synced from Notion.</p><p><strong>Platform:</strong> %s</p><p><strong>Content Type:</strong> %s</p>",
			platform, contentType),
		Excerpt:         excerpt,
		FeaturedImage:   props["Photo URL"].fileURL(),
		Tags:            tags,
		Author:          author,
		SubTopic:        subTopic,
		Pinned:          pinned,
		CreatedAt:       page.CreatedTime,
		UpdatedAt:       page.LastEditedTime,
		PublishedAt:     publishedAt,
		NotionURL:       page.PublicURL,
		OriginalPostURL: postURL,
		LastSynced:      m.now().UTC(),
	}
	// Status strings like "Book done" or "Life draft" land in the tag list, so
	// the shared categorizer also covers the status-based override.
	p.Category = m.categorizer.Categorize(&p)
	return p
}

// MapPages converts a result set, preserving order.
func (m *PageMapper) MapPages(pages []Page) []post.Post {
	posts := make([]post.Post, 0, len(pages))
	for _, pg := range pages {
		posts = append(posts, m.MapPage(pg))
	}
	return posts
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func dedupeNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := []string{}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
