package knowledge

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals an unknown knowledge item identifier.
var ErrNotFound = errors.New("knowledge item not found")

// Item is one saved analysis note. Items are owned exclusively by the
// store's map; callers get copies.
type Item struct {
	ID              string    `json:"id"`
	Bvid            string    `json:"bvid"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	MarkdownContent string    `json:"markdown_content"`
	AnalysisType    string    `json:"analysis_type"`
	Tags            []string  `json:"tags"`
	IsFavorite      bool      `json:"is_favorite"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store is the in-memory knowledge base. Process lifetime only; nothing is
// persisted across restarts.
type Store struct {
	items map[string]*Item
	mu    sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		items: make(map[string]*Item),
	}
}

// List returns all items. Order is not guaranteed.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item)
	}

	return items
}

// Save inserts a new item under a fresh random identifier and returns it.
func (s *Store) Save(bvid, markdownContent, title, author, analysisType string) Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().In(time.Local)
	item := &Item{
		ID:              uuid.NewString(),
		Bvid:            bvid,
		Title:           title,
		Author:          author,
		MarkdownContent: markdownContent,
		AnalysisType:    analysisType,
		Tags:            []string{},
		IsFavorite:      false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.items[item.ID] = item

	return *item
}

// ToggleFavorite flips the favorite flag for an existing item and returns
// the new value.
func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return false, ErrNotFound
	}

	item.IsFavorite = !item.IsFavorite
	item.UpdatedAt = time.Now().In(time.Local)

	return item.IsFavorite, nil
}

// Delete removes an item and returns it.
func (s *Store) Delete(id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}

	delete(s.items, id)

	return *item, nil
}

// Count reports how many items the store holds.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}
