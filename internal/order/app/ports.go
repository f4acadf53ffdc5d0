package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dwikikusuma/shopmesh/internal/order/domain"
)

type OrderRepo interface {
	// CreateOrderTx stores the order and its items in one transaction.
	CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error)
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	// TransitionStatus moves the order from one status to another and reports
	// false when the order is no longer in the from status.
	TransitionStatus(ctx context.Context, id int64, from, to domain.Status) (bool, error)
}

type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

// Inventory is the catalog as seen by order placement.
type Inventory interface {
	ProductsByIDs(ctx context.Context, ids []int64) ([]Product, error)
	Reserve(ctx context.Context, productID int64, quantity int32) error
	Release(ctx context.Context, productID int64, quantity int32) error
}
