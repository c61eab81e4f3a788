// Package rss renders category feeds from cached posts.
package rss

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"shelflife/internal/post"
)

// RSS is the root element of an RSS feed.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel Channel  `xml:"channel"`
}

// Channel represents the channel element in an RSS feed.
type Channel struct {
	XMLName       xml.Name `xml:"channel"`
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	Language      string   `xml:"language,omitempty"`
	LastBuildDate string   `xml:"lastBuildDate,omitempty"` // RFC1123Z
	Items         []Item   `xml:"item"`
}

// Item represents an item element in an RSS feed.
type Item struct {
	XMLName     xml.Name `xml:"item"`
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description,omitempty"`
	PubDate     string   `xml:"pubDate,omitempty"` // RFC1123Z
	GUID        string   `xml:"guid,omitempty"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category,omitempty"`
}

var channelTitles = map[post.Category]string{
	post.CategoryBookReviews: "Book Reviews",
	post.CategoryUKLife:      "UK Life",
}

// Build renders the feed for one category. Posts are expected in display
// order; the builder does not re-sort.
func Build(category post.Category, posts []post.Post, siteURL string, now time.Time) *RSS {
	siteURL = strings.TrimRight(siteURL, "/")

	title, ok := channelTitles[category]
	if !ok {
		title = string(category)
	}

	items := make([]Item, 0, len(posts))
	for _, p := range posts {
		link := fmt.Sprintf("%s/%s/%s", siteURL, category, p.Slug)
		items = append(items, Item{
			Title:       p.Title,
			Link:        link,
			Description: p.Excerpt,
			PubDate:     p.PublishedAt.UTC().Format(time.RFC1123Z),
			GUID:        link,
			Author:      p.Author,
			Categories:  p.Tags,
		})
	}

	return &RSS{
		Version: "2.0",
		Channel: Channel{
			Title:         title,
			Link:          fmt.Sprintf("%s/%s", siteURL, category),
			Description:   fmt.Sprintf("Latest %s posts", title),
			Language:      "en",
			LastBuildDate: now.UTC().Format(time.RFC1123Z),
			Items:         items,
		},
	}
}

// Encode serializes the feed with the XML header prepended.
func (r *RSS) Encode() ([]byte, error) {
	body, err := xml.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
