package store

import (
	"context"
	"errors"

	"shelflife/internal/database"
	"shelflife/internal/post"
)

// SQLite adapts the database layer to the PostStore contract, giving the
// webhook path a durable variant with identical replace semantics.
type SQLite struct {
	db *database.DB
}

func NewSQLite(db *database.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Replace(category post.Category, posts []post.Post) error {
	return s.db.ReplaceCategoryPosts(context.Background(), category, posts)
}

func (s *SQLite) Get(category post.Category) ([]post.Post, error) {
	return s.db.PostsByCategory(context.Background(), category)
}

func (s *SQLite) UniqueTags(category post.Category) ([]string, error) {
	posts, err := s.Get(category)
	if err != nil {
		return nil, err
	}
	return uniqueTags(posts), nil
}

func (s *SQLite) UniqueSubTopics(category post.Category) ([]string, error) {
	posts, err := s.Get(category)
	if err != nil {
		return nil, err
	}
	return uniqueSubTopics(posts), nil
}

func (s *SQLite) Info() (Info, error) {
	ctx := context.Background()
	counts, err := s.db.CategoryCounts(ctx)
	if err != nil {
		return Info{}, err
	}

	info := Info{Counts: make(map[string]int)}
	for _, c := range canonicalCategories {
		info.Counts[string(c)] = counts[string(c)]
	}
	for c, n := range counts {
		info.Counts[c] = n
	}
	for _, n := range info.Counts {
		info.TotalPosts += n
	}

	last, err := s.db.LastUpdated(ctx)
	if err == nil {
		info.LastUpdated = &last
	} else if !errors.Is(err, database.ErrNotFound) {
		return Info{}, err
	}
	return info, nil
}
