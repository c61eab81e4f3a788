package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shelflife/internal/post"
)

// Error definitions
var (
	ErrNotFound = errors.New("record not found")
)

const lastUpdatedKey = "posts_last_updated"

// ReplaceCategoryPosts deletes every post in the category and inserts the
// given list inside one transaction, then records the update time. Matches
// the cache contract: wholesale replace, no merge.
func (db *DB) ReplaceCategoryPosts(ctx context.Context, category post.Category, posts []post.Post) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE category = ?", category); err != nil {
		return fmt.Errorf("clear category %s: %w", category, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (
			category, id, position, title, slug, content, excerpt,
			featured_image, tags, author, sub_topic, pinned,
			created_at, updated_at, published_at,
			notion_url, original_post_url, last_synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range posts {
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return fmt.Errorf("encode tags for %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			category, p.ID, i, p.Title, p.Slug, p.Content, p.Excerpt,
			p.FeaturedImage, string(tags), p.Author, p.SubTopic, p.Pinned,
			p.CreatedAt, p.UpdatedAt, p.PublishedAt,
			p.NotionURL, p.OriginalPostURL, p.LastSynced,
		); err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET
		 value = excluded.value,
		 updated_at = CURRENT_TIMESTAMP`,
		lastUpdatedKey, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("record update time: %w", err)
	}

	return tx.Commit()
}

// PostsByCategory returns the stored list in arrival order.
func (db *DB) PostsByCategory(ctx context.Context, category post.Category) ([]post.Post, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, slug, content, excerpt, featured_image, tags,
		       author, sub_topic, pinned,
		       created_at, updated_at, published_at,
		       notion_url, original_post_url, last_synced
		FROM posts
		WHERE category = ?
		ORDER BY position`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []post.Post{}
	for rows.Next() {
		p := post.Post{Category: category}
		var tags string
		var content, excerpt, image, author, subTopic, notionURL, originalURL sql.NullString
		var createdAt, updatedAt, lastSynced sql.NullTime
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &content, &excerpt, &image, &tags,
			&author, &subTopic, &p.Pinned,
			&createdAt, &updatedAt, &p.PublishedAt,
			&notionURL, &originalURL, &lastSynced,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Content = content.String
		p.Excerpt = excerpt.String
		p.FeaturedImage = image.String
		p.Author = author.String
		p.SubTopic = subTopic.String
		p.NotionURL = notionURL.String
		p.OriginalPostURL = originalURL.String
		p.CreatedAt = createdAt.Time
		p.UpdatedAt = updatedAt.Time
		p.LastSynced = lastSynced.Time
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			p.Tags = []string{}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CategoryCounts returns post counts keyed by category.
func (db *DB) CategoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM posts GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, err
		}
		counts[c] = n
	}
	return counts, rows.Err()
}

// LastUpdated returns the time of the most recent replace, or ErrNotFound if
// nothing has ever been stored.
func (db *DB) LastUpdated(ctx context.Context) (time.Time, error) {
	var value string
	err := db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", lastUpdatedKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last updated: %w", err)
	}
	return t, nil
}
