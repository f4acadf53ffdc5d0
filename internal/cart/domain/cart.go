package domain

import "time"

type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cart is the aggregate root. There is at most one cart per user and at
// most one item per product within a cart.
type Cart struct {
	ID        int64
	UserID    int64
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Cart) Item(productID int64) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// LineItem is a requested (product, quantity) pair.
type LineItem struct {
	ProductID int64
	Quantity  int32
}
