package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/shopmesh/internal/order/app"
	"github.com/dwikikusuma/shopmesh/internal/order/domain"
	"github.com/dwikikusuma/shopmesh/internal/order/infra/memory"
	"github.com/dwikikusuma/shopmesh/pkg/logger"
)

type fakeInventory struct {
	mu       sync.Mutex
	products map[int64]app.Product
	stock    map[int64]int32
	released []int64
	down     bool
}

func newInventory() *fakeInventory {
	return &fakeInventory{
		products: map[int64]app.Product{
			1: {ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("49.90")},
			2: {ID: 2, Name: "Mouse", Price: decimal.RequireFromString("9.99")},
		},
		stock: map[int64]int32{1: 5, 2: 1},
	}
}

func (f *fakeInventory) ProductsByIDs(ctx context.Context, ids []int64) ([]app.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, app.ErrDependencyUnavailable
	}
	var out []app.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeInventory) Reserve(ctx context.Context, productID int64, quantity int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stock[productID] < quantity {
		return fmt.Errorf("%w: product %d", app.ErrInsufficientStock, productID)
	}
	f.stock[productID] -= quantity
	return nil
}

func (f *fakeInventory) Release(ctx context.Context, productID int64, quantity int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[productID] += quantity
	f.released = append(f.released, productID)
	return nil
}

func lines(items ...domain.OrderItemRequest) domain.CreateOrderRequest {
	return domain.CreateOrderRequest{UserID: 7, ShippingAmount: decimal.RequireFromString("5"), Items: items}
}

func TestCreateOrder_PricesAndReserves(t *testing.T) {
	inv := newInventory()
	svc := app.NewService(memory.NewOrderRepo(), inv, logger.Nop())

	o, err := svc.CreateOrder(context.Background(), lines(
		domain.OrderItemRequest{ProductID: 1, Quantity: 2},
		domain.OrderItemRequest{ProductID: 2, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.DefaultCurrency, o.Currency)
	assert.Equal(t, "109.79", o.SubTotalAmount.StringFixed(2))
	assert.Equal(t, "114.79", o.TotalAmount.StringFixed(2))
	require.Len(t, o.OrderItems, 2)
	assert.Equal(t, "Keyboard", o.OrderItems[0].Name)
	assert.Equal(t, int32(3), inv.stock[1])
	assert.Equal(t, int32(0), inv.stock[2])
	assert.Empty(t, inv.released)
}

func TestCreateOrder_ReleasesOnReservationFailure(t *testing.T) {
	inv := newInventory()
	repo := memory.NewOrderRepo()
	svc := app.NewService(repo, inv, logger.Nop())

	_, err := svc.CreateOrder(context.Background(), lines(
		domain.OrderItemRequest{ProductID: 1, Quantity: 2},
		domain.OrderItemRequest{ProductID: 2, Quantity: 3},
	))
	require.ErrorIs(t, err, app.ErrInsufficientStock)

	assert.Equal(t, int32(5), inv.stock[1])
	assert.Equal(t, int32(1), inv.stock[2])
	assert.Equal(t, []int64{1}, inv.released)

	orders, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_ReleasesOnStoreFailure(t *testing.T) {
	inv := newInventory()
	repo := memory.NewOrderRepo()
	repo.FailCreate = errors.New("db down")
	svc := app.NewService(repo, inv, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := svc.CreateOrder(ctx, lines(
		domain.OrderItemRequest{ProductID: 1, Quantity: 1},
		domain.OrderItemRequest{ProductID: 2, Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, int32(5), inv.stock[1])
	assert.Equal(t, int32(1), inv.stock[2])
	assert.ElementsMatch(t, []int64{1, 2}, inv.released)
}

func TestCreateOrder_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  domain.CreateOrderRequest
		want error
	}{
		{"no items", lines(), app.ErrInvalidArgument},
		{"zero quantity", lines(domain.OrderItemRequest{ProductID: 1}), app.ErrInvalidArgument},
		{"bad product id", lines(domain.OrderItemRequest{ProductID: 0, Quantity: 1}), app.ErrInvalidArgument},
		{"duplicate product", lines(
			domain.OrderItemRequest{ProductID: 1, Quantity: 1},
			domain.OrderItemRequest{ProductID: 1, Quantity: 1},
		), app.ErrInvalidArgument},
		{"negative shipping", domain.CreateOrderRequest{
			UserID: 7, ShippingAmount: decimal.NewFromInt(-1),
			Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 1}},
		}, app.ErrInvalidArgument},
		{"unknown product", lines(domain.OrderItemRequest{ProductID: 99, Quantity: 1}), app.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newInventory()
			svc := app.NewService(memory.NewOrderRepo(), inv, logger.Nop())

			_, err := svc.CreateOrder(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(5), inv.stock[1])
		})
	}
}

func TestCreateOrder_CatalogDown(t *testing.T) {
	inv := newInventory()
	inv.down = true
	svc := app.NewService(memory.NewOrderRepo(), inv, logger.Nop())

	_, err := svc.CreateOrder(context.Background(), lines(domain.OrderItemRequest{ProductID: 1, Quantity: 1}))
	assert.ErrorIs(t, err, app.ErrDependencyUnavailable)
}

func TestCancelOrder_ReleasesOnce(t *testing.T) {
	inv := newInventory()
	svc := app.NewService(memory.NewOrderRepo(), inv, logger.Nop())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, lines(domain.OrderItemRequest{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)
	require.Equal(t, int32(3), inv.stock[1])

	got, err := svc.CancelOrder(ctx, 7, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, int32(5), inv.stock[1])

	got, err = svc.CancelOrder(ctx, 7, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, int32(5), inv.stock[1])
	assert.Len(t, inv.released, 1)
}

func TestOrders_AreScopedToTheirOwner(t *testing.T) {
	inv := newInventory()
	svc := app.NewService(memory.NewOrderRepo(), inv, logger.Nop())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, lines(domain.OrderItemRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, 8, o.ID)
	assert.ErrorIs(t, err, app.ErrNotFound)

	_, err = svc.CancelOrder(ctx, 8, o.ID)
	assert.ErrorIs(t, err, app.ErrNotFound)
	assert.Equal(t, int32(4), inv.stock[1])

	mine, err := svc.ListOrders(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListOrders(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
