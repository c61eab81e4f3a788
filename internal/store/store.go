// Package store provides the post stores the webhook ingestion path writes
// into: a process-local memory store, a JSON file store, and a sqlite-backed
// store. All of them share the same replace-wholesale contract — a delivery
// for a category discards whatever was cached for that category before.
package store

import (
	"time"

	"shelflife/internal/post"
)

// PostStore is the injected cache contract. Replace is last-write-wins with no
// merge; Get returns an empty list for categories never populated.
type PostStore interface {
	Replace(category post.Category, posts []post.Post) error
	Get(category post.Category) ([]post.Post, error)
	UniqueTags(category post.Category) ([]string, error)
	UniqueSubTopics(category post.Category) ([]string, error)
	Info() (Info, error)
}

// Info describes current cache state for the debug endpoint.
type Info struct {
	LastUpdated *time.Time     `json:"lastUpdated"`
	Counts      map[string]int `json:"counts"`
	TotalPosts  int            `json:"totalPosts"`
}

// The two canonical cache keys. Other categories may be stored, but these are
// always reported in Info so consumers see explicit zero counts.
var canonicalCategories = []post.Category{post.CategoryBookReviews, post.CategoryUKLife}

func uniqueTags(posts []post.Post) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range posts {
		for _, t := range p.Tags {
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func uniqueSubTopics(posts []post.Post) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range posts {
		if p.SubTopic == "" {
			continue
		}
		if _, dup := seen[p.SubTopic]; dup {
			continue
		}
		seen[p.SubTopic] = struct{}{}
		out = append(out, p.SubTopic)
	}
	return out
}
