package store

import (
	"sync"
	"time"

	"shelflife/internal/post"
)

// Memory is the process-local cache store. Contents live only for process
// uptime; a restart starts empty. Guarded by a RWMutex because the HTTP server
// handles requests concurrently — concurrent deliveries for the same category
// remain last-write-wins in handler arrival order.
type Memory struct {
	mu          sync.RWMutex
	posts       map[post.Category][]post.Post
	lastUpdated *time.Time
	now         func() time.Time
}

// NewMemory returns an empty memory store. A nil now defaults to time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		posts: make(map[post.Category][]post.Post),
		now:   now,
	}
}

// Replace swaps the full list for a category and refreshes lastUpdated.
func (m *Memory) Replace(category post.Category, posts []post.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]post.Post, len(posts))
	copy(cp, posts)
	m.posts[category] = cp
	t := m.now().UTC()
	m.lastUpdated = &t
	return nil
}

// Get returns the cached list for a category, empty if never populated.
func (m *Memory) Get(category post.Category) ([]post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cached := m.posts[category]
	out := make([]post.Post, len(cached))
	copy(out, cached)
	return out, nil
}

func (m *Memory) UniqueTags(category post.Category) ([]string, error) {
	posts, _ := m.Get(category)
	return uniqueTags(posts), nil
}

func (m *Memory) UniqueSubTopics(category post.Category) ([]string, error) {
	posts, _ := m.Get(category)
	return uniqueSubTopics(posts), nil
}

func (m *Memory) Info() (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := Info{Counts: make(map[string]int)}
	if m.lastUpdated != nil {
		t := *m.lastUpdated
		info.LastUpdated = &t
	}
	for _, c := range canonicalCategories {
		info.Counts[string(c)] = len(m.posts[c])
	}
	for c, posts := range m.posts {
		info.Counts[string(c)] = len(posts)
	}
	for _, n := range info.Counts {
		info.TotalPosts += n
	}
	return info, nil
}
