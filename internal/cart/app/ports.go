package app

import (
	"context"

	"github.com/dwikikusuma/shopmesh/internal/cart/domain"
)

// CartRepo persists the cart aggregate. Implementations enforce one cart per
// user and one item per (cart, product).
type CartRepo interface {
	GetByUser(ctx context.Context, userID int64) (domain.Cart, error)
	GetByID(ctx context.Context, cartID int64) (domain.Cart, error)
	List(ctx context.Context) ([]domain.Cart, error)
	// Create fails with ErrConflict when the user already has a cart.
	Create(ctx context.Context, userID int64) (domain.Cart, error)
	Delete(ctx context.Context, cartID int64) error

	GetItem(ctx context.Context, cartID, productID int64) (domain.CartItem, error)
	// AddItem inserts the item or adds quantity to the existing one.
	AddItem(ctx context.Context, cartID, productID int64, quantity int32) error
	SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int32) error
	RemoveItem(ctx context.Context, cartID, productID int64) error
	ClearItems(ctx context.Context, cartID int64) error
	ReplaceItems(ctx context.Context, cartID int64, items []domain.LineItem) error
}

type Availability struct {
	Available bool
	Message   string
}

// StockChecker asks catalog whether quantity units of a product can be had.
type StockChecker interface {
	CheckAvailability(ctx context.Context, productID int64, quantity int32) (Availability, error)
}
