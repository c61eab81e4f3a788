package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"shelflife/internal/post"
)

// fileState is the on-disk shape of the file store.
type fileState struct {
	Posts       map[post.Category][]post.Post `json:"posts"`
	LastUpdated *time.Time                    `json:"lastUpdated"`
}

// File persists the cache as a single JSON document, rewritten in full on
// every Replace. Survives restarts, unlike the memory store.
type File struct {
	mu    sync.Mutex
	path  string
	state fileState
	now   func() time.Time
}

// NewFile loads existing state from path if present. A missing file starts
// empty; a corrupt file is an error so a bad deploy does not silently wipe
// the cache.
func NewFile(path string, now func() time.Time) (*File, error) {
	if now == nil {
		now = time.Now
	}
	f := &File{
		path:  path,
		state: fileState{Posts: make(map[post.Category][]post.Post)},
		now:   now,
	}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read post store %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &f.state); err != nil {
		return nil, fmt.Errorf("decode post store %s: %w", path, err)
	}
	if f.state.Posts == nil {
		f.state.Posts = make(map[post.Category][]post.Post)
	}
	return f, nil
}

func (f *File) Replace(category post.Category, posts []post.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := make([]post.Post, len(posts))
	copy(cp, posts)
	f.state.Posts[category] = cp
	t := f.now().UTC()
	f.state.LastUpdated = &t
	return f.flush()
}

// flush rewrites the whole file. Caller holds the lock.
func (f *File) flush() error {
	b, err := json.MarshalIndent(f.state, "", " ")
	if err != nil {
		return fmt.Errorf("encode post store: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create post store directory: %w", err)
		}
	}
	if err := os.WriteFile(f.path, b, 0644); err != nil {
		return fmt.Errorf("write post store %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Get(category post.Category) ([]post.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cached := f.state.Posts[category]
	out := make([]post.Post, len(cached))
	copy(out, cached)
	return out, nil
}

func (f *File) UniqueTags(category post.Category) ([]string, error) {
	posts, err := f.Get(category)
	if err != nil {
		return nil, err
	}
	return uniqueTags(posts), nil
}

func (f *File) UniqueSubTopics(category post.Category) ([]string, error) {
	posts, err := f.Get(category)
	if err != nil {
		return nil, err
	}
	return uniqueSubTopics(posts), nil
}

func (f *File) Info() (Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info := Info{Counts: make(map[string]int)}
	if f.state.LastUpdated != nil {
		t := *f.state.LastUpdated
		info.LastUpdated = &t
	}
	for _, c := range canonicalCategories {
		info.Counts[string(c)] = len(f.state.Posts[c])
	}
	for c, posts := range f.state.Posts {
		info.Counts[string(c)] = len(posts)
	}
	for _, n := range info.Counts {
		info.TotalPosts += n
	}
	return info, nil
}
