// Package memory keeps carts in process. It enforces the same uniqueness
// rules as the SQL schema: one cart per user, one item per product per cart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dwikikusuma/shopmesh/internal/cart/app"
	"github.com/dwikikusuma/shopmesh/internal/cart/domain"
)

type CartRepo struct {
	mu         sync.Mutex
	nextCartID int64
	nextItemID int64
	carts      map[int64]*domain.Cart
	byUser     map[int64]int64
	items      map[int64]map[int64]*domain.CartItem
	now        func() time.Time
}

func NewCartRepo() *CartRepo {
	return &CartRepo{
		carts:  map[int64]*domain.Cart{},
		byUser: map[int64]int64{},
		items:  map[int64]map[int64]*domain.CartItem{},
		now:    time.Now,
	}
}

// snapshot copies a cart with its items ordered by item id. Caller holds mu.
func (r *CartRepo) snapshot(c *domain.Cart) domain.Cart {
	out := *c
	out.Items = make([]domain.CartItem, 0, len(r.items[c.ID]))
	for _, it := range r.items[c.ID] {
		out.Items = append(out.Items, *it)
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ID < out.Items[j].ID })
	return out
}

func (r *CartRepo) GetByUser(ctx context.Context, userID int64) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUser[userID]
	if !ok {
		return domain.Cart{}, app.ErrNotFound
	}
	return r.snapshot(r.carts[id]), nil
}

func (r *CartRepo) GetByID(ctx context.Context, cartID int64) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[cartID]
	if !ok {
		return domain.Cart{}, app.ErrNotFound
	}
	return r.snapshot(c), nil
}

func (r *CartRepo) List(ctx context.Context) ([]domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Cart, 0, len(r.carts))
	for _, c := range r.carts {
		out = append(out, r.snapshot(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CartRepo) Create(ctx context.Context, userID int64) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUser[userID]; exists {
		return domain.Cart{}, app.ErrConflict
	}
	r.nextCartID++
	now := r.now().UTC()
	c := &domain.Cart{ID: r.nextCartID, UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.carts[c.ID] = c
	r.byUser[userID] = c.ID
	r.items[c.ID] = map[int64]*domain.CartItem{}
	return r.snapshot(c), nil
}

func (r *CartRepo) Delete(ctx context.Context, cartID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[cartID]
	if !ok {
		return nil
	}
	delete(r.byUser, c.UserID)
	delete(r.items, cartID)
	delete(r.carts, cartID)
	return nil
}

func (r *CartRepo) GetItem(ctx context.Context, cartID, productID int64) (domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[cartID][productID]
	if !ok {
		return domain.CartItem{}, app.ErrNotFound
	}
	return *it, nil
}

func (r *CartRepo) AddItem(ctx context.Context, cartID, productID int64, quantity int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines, ok := r.items[cartID]
	if !ok {
		return app.ErrNotFound
	}
	now := r.now().UTC()
	if it, ok := lines[productID]; ok {
		it.Quantity += quantity
		it.UpdatedAt = now
	} else {
		r.nextItemID++
		lines[productID] = &domain.CartItem{
			ID:        r.nextItemID,
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	r.carts[cartID].UpdatedAt = now
	return nil
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[cartID][productID]
	if !ok {
		return app.ErrNotFound
	}
	now := r.now().UTC()
	it.Quantity = quantity
	it.UpdatedAt = now
	r.carts[cartID].UpdatedAt = now
	return nil
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lines, ok := r.items[cartID]; ok {
		delete(lines, productID)
	}
	return nil
}

func (r *CartRepo) ClearItems(ctx context.Context, cartID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[cartID]; ok {
		r.items[cartID] = map[int64]*domain.CartItem{}
	}
	return nil
}

func (r *CartRepo) ReplaceItems(ctx context.Context, cartID int64, items []domain.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[cartID]; !ok {
		return app.ErrNotFound
	}
	now := r.now().UTC()
	lines := make(map[int64]*domain.CartItem, len(items))
	for _, li := range items {
		r.nextItemID++
		lines[li.ProductID] = &domain.CartItem{
			ID:        r.nextItemID,
			CartID:    cartID,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	r.items[cartID] = lines
	r.carts[cartID].UpdatedAt = now
	return nil
}
