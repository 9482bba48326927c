package services

import (
	"context"
	"strings"

	"ecoleta/internal/domain"
)

type ItemStore interface {
	List(ctx context.Context) ([]domain.Item, error)
	Missing(ctx context.Context, ids []int64) ([]int64, error)
}

type CatalogService struct {
	Items     ItemStore
	AssetBase string
}

// NewCatalogService serves item icons from assetBase, e.g. http://host/static/items.
func NewCatalogService(items ItemStore, assetBase string) *CatalogService {
	return &CatalogService{Items: items, AssetBase: strings.TrimRight(assetBase, "/")}
}

func (s *CatalogService) ListItems(ctx context.Context) ([]domain.Item, error) {
	items, err := s.Items.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list items", Err: err}
	}
	for i := range items {
		items[i].ImageURL = s.imageURL(items[i].Image)
	}
	return items, nil
}

func (s *CatalogService) imageURL(image string) string {
	if image == "" {
		return ""
	}
	return s.AssetBase + "/" + image
}
