package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/shopmesh/internal/catalog/stockclient"
	checkoutapp "github.com/dwikikusuma/shopmesh/internal/checkout/app"
)

type ProductGetter interface {
	GetProduct(ctx context.Context, id int64) (stockclient.Product, error)
}

// CatalogReader reads products over the stock RPC.
type CatalogReader struct {
	client ProductGetter
}

func NewCatalogReader(client ProductGetter) *CatalogReader {
	return &CatalogReader{client: client}
}

func (r *CatalogReader) GetProduct(ctx context.Context, productID int64) (checkoutapp.Product, error) {
	p, err := r.client.GetProduct(ctx, productID)
	if err != nil {
		switch {
		case errors.Is(err, stockclient.ErrNotFound):
			return checkoutapp.Product{}, fmt.Errorf("%w: %d", checkoutapp.ErrProductNotFound, productID)
		case errors.Is(err, stockclient.ErrDependencyUnavailable):
			return checkoutapp.Product{}, fmt.Errorf("%w: %v", checkoutapp.ErrDependencyUnavailable, err)
		}
		return checkoutapp.Product{}, err
	}

	return checkoutapp.Product{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Stock: p.Stock,
	}, nil
}
