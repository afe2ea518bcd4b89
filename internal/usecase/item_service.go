package usecase

import (
	"context"
	"strings"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
)

// ItemService is the catalogue CRUD boundary.
type ItemService struct {
	store domrepo.ItemStore
}

func NewItemService(store domrepo.ItemStore) *ItemService {
	return &ItemService{store: store}
}

func (s *ItemService) List(ctx context.Context) ([]models.Item, error) {
	return s.store.List(ctx)
}

func (s *ItemService) Get(ctx context.Context, id int) (*models.Item, error) {
	return s.store.Get(ctx, id)
}

func (s *ItemService) Create(ctx context.Context, in models.ItemInput) (*models.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, models.InputError("create item", "name is required", nil)
	}
	return s.store.Create(ctx, in)
}

func (s *ItemService) Update(ctx context.Context, id int, in models.ItemInput) (*models.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, models.InputError("update item", "name is required", nil)
	}
	return s.store.Update(ctx, id, in)
}

func (s *ItemService) Delete(ctx context.Context, id int) (*models.Item, error) {
	return s.store.Delete(ctx, id)
}

func (s *ItemService) Search(ctx context.Context, query string) ([]models.Item, error) {
	return s.store.Search(ctx, query)
}
