package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/shopmesh/internal/catalog/stockclient"
	orderapp "github.com/dwikikusuma/shopmesh/internal/order/app"
)

type StockClient interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]stockclient.Product, error)
	Reserve(ctx context.Context, productID int64, quantity int32) (int32, error)
	Release(ctx context.Context, productID int64, quantity int32) (int32, error)
}

// Inventory reaches the catalog over the stock RPC.
type Inventory struct {
	client StockClient
}

func NewInventory(client StockClient) *Inventory {
	return &Inventory{client: client}
}

func (i *Inventory) ProductsByIDs(ctx context.Context, ids []int64) ([]orderapp.Product, error) {
	products, err := i.client.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]orderapp.Product, 0, len(products))
	for _, p := range products {
		out = append(out, orderapp.Product{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	return out, nil
}

func (i *Inventory) Reserve(ctx context.Context, productID int64, quantity int32) error {
	_, err := i.client.Reserve(ctx, productID, quantity)
	return mapErr(err)
}

func (i *Inventory) Release(ctx context.Context, productID int64, quantity int32) error {
	_, err := i.client.Release(ctx, productID, quantity)
	return mapErr(err)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stockclient.ErrInsufficientStock):
		return fmt.Errorf("%w: %v", orderapp.ErrInsufficientStock, err)
	case errors.Is(err, stockclient.ErrNotFound):
		return fmt.Errorf("%w: %v", orderapp.ErrNotFound, err)
	case errors.Is(err, stockclient.ErrInvalidArgument):
		return fmt.Errorf("%w: %v", orderapp.ErrInvalidArgument, err)
	case errors.Is(err, stockclient.ErrDependencyUnavailable):
		return fmt.Errorf("%w: %v", orderapp.ErrDependencyUnavailable, err)
	}
	return err
}
