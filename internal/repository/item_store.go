package repository

import (
	"context"
	"strings"
	"sync"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
)

const itemNotFound = "Item not found"

// MemoryItemStore keeps items in insertion order. IDs start at 1 and are never reused.
type MemoryItemStore struct {
	mu     sync.RWMutex
	items  []models.Item
	nextID int
}

var _ repository.ItemStore = (*MemoryItemStore)(nil)

func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{items: make([]models.Item, 0), nextID: 1}
}

func (s *MemoryItemStore) List(ctx context.Context) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *MemoryItemStore) indexOf(id int) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryItemStore) Get(ctx context.Context, id int) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, models.NotFoundError("get item", itemNotFound)
	}
	it := s.items[i]
	return &it, nil
}

func (s *MemoryItemStore) Create(ctx context.Context, in models.ItemInput) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := fromInput(s.nextID, in)
	s.nextID++
	s.items = append(s.items, it)
	return &it, nil
}

func (s *MemoryItemStore) Update(ctx context.Context, id int, in models.ItemInput) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, models.NotFoundError("update item", itemNotFound)
	}
	it := fromInput(id, in)
	s.items[i] = it
	return &it, nil
}

func (s *MemoryItemStore) Delete(ctx context.Context, id int) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, models.NotFoundError("delete item", itemNotFound)
	}
	it := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return &it, nil
}

// Search matches query as a case-insensitive substring of the item name.
func (s *MemoryItemStore) Search(ctx context.Context, query string) ([]models.Item, error) {
	q := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, 0)
	for _, it := range s.items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out, nil
}

func fromInput(id int, in models.ItemInput) models.Item {
	return models.Item{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		IsAvailable: in.IsAvailable,
	}
}
