package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/shopmesh/internal/catalog/stockclient"
	orderapp "github.com/dwikikusuma/shopmesh/internal/order/app"
)

type stubClient struct {
	products []stockclient.Product
	err      error
}

func (s stubClient) GetProductsByIDs(ctx context.Context, ids []int64) ([]stockclient.Product, error) {
	return s.products, s.err
}

func (s stubClient) Reserve(ctx context.Context, productID int64, quantity int32) (int32, error) {
	return 0, s.err
}

func (s stubClient) Release(ctx context.Context, productID int64, quantity int32) (int32, error) {
	return 0, s.err
}

func TestInventory_MapsStockErrors(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{stockclient.ErrInsufficientStock, orderapp.ErrInsufficientStock},
		{stockclient.ErrNotFound, orderapp.ErrNotFound},
		{stockclient.ErrInvalidArgument, orderapp.ErrInvalidArgument},
		{stockclient.ErrDependencyUnavailable, orderapp.ErrDependencyUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.in.Error(), func(t *testing.T) {
			inv := NewInventory(stubClient{err: tt.in})
			assert.ErrorIs(t, inv.Reserve(context.Background(), 1, 1), tt.want)
			assert.ErrorIs(t, inv.Release(context.Background(), 1, 1), tt.want)
		})
	}

	other := errors.New("boom")
	assert.Equal(t, other, NewInventory(stubClient{err: other}).Reserve(context.Background(), 1, 1))
}

func TestInventory_ProductsByIDs(t *testing.T) {
	inv := NewInventory(stubClient{products: []stockclient.Product{
		{ID: 3, Name: "Mouse", Price: decimal.RequireFromString("9.99"), Stock: 4},
	}})

	got, err := inv.ProductsByIDs(context.Background(), []int64{3})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mouse", got[0].Name)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("9.99")))
}
