package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/shopmesh/internal/checkout/domain"
)

type CartReader interface {
	GetCart(ctx context.Context, userID int64) ([]CartItem, error)
}

type CartItem struct {
	ProductID int64
	Quantity  int32
}

type CatalogReader interface {
	GetProduct(ctx context.Context, productID int64) (Product, error)
}

type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int32
}

type Service struct {
	Cart    CartReader
	Catalog CatalogReader

	maxConcurrent int
}

func NewService(cart CartReader, catalog CatalogReader, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	return &Service{
		Cart:          cart,
		Catalog:       catalog,
		maxConcurrent: maxConcurrent,
	}
}

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrProductNotFound       = errors.New("product not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Quote prices the user's cart with current catalog prices. Products are
// fetched concurrently, bounded by maxConcurrent.
func (s *Service) Quote(ctx context.Context, userID int64) (domain.Quote, error) {
	if userID <= 0 {
		return domain.Quote{}, fmt.Errorf("%w: userId must be positive", ErrInvalidArgument)
	}

	items, err := s.Cart.GetCart(ctx, userID)
	if err != nil {
		return domain.Quote{}, err
	}

	if len(items) == 0 {
		return domain.Quote{}, ErrEmptyCart
	}

	lines := make([]domain.QuoteLine, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range items {
		g.Go(func() error {
			it := items[idx]
			if it.Quantity <= 0 {
				return fmt.Errorf("%w: quantity must be greater than zero: %d", ErrInvalidArgument, it.Quantity)
			}

			product, err := s.Catalog.GetProduct(gctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("failed to get product %d: %w", it.ProductID, err)
			}

			lines[idx] = domain.QuoteLine{
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  it.Quantity,
				UnitPrice: product.Price,
				LineTotal: product.Price.Mul(decimal.NewFromInt32(it.Quantity)),
				InStock:   product.Stock,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}

	return domain.Quote{UserID: userID, Lines: lines, Total: total}, nil
}
