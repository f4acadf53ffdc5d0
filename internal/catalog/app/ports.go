package app

import (
	"context"

	"github.com/dwikikusuma/shopmesh/internal/catalog/domain"
)

type ProductRepo interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	// GetMany returns the products that exist among ids, in any order.
	GetMany(ctx context.Context, ids []int64) ([]domain.Product, error)
	List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
	// AdjustStock adds delta to the stock of one product atomically. It fails
	// with ErrInsufficientStock when the result would drop below zero.
	AdjustStock(ctx context.Context, id int64, delta int32) (domain.Product, error)
}
