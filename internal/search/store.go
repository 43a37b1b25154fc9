package search

import (
	"context"

	"github.com/xelth-com/pharmsearch/internal/models"
)

// Store is the read side of the product catalog the engine resolves against
type Store interface {
	// CountProducts counts the rows matching q.Where
	CountProducts(ctx context.Context, q Query) (int64, error)
	// FindProducts returns one ordered page of the rows matching q
	FindProducts(ctx context.Context, q Query, offset, limit int) ([]models.Product, error)
	// FindDetails returns the stored details of the given products, keyed by
	// product id. Products without a detail row are absent from the map.
	FindDetails(ctx context.Context, productIDs []int64) (map[int64]models.ProductDetail, error)
}

// Counters records which products a search returned
type Counters interface {
	IncrementSearchHits(ctx context.Context, productIDs []int64) error
}
