// Package memory keeps orders in process for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dwikikusuma/shopmesh/internal/order/app"
	"github.com/dwikikusuma/shopmesh/internal/order/domain"
)

type OrderRepo struct {
	mu         sync.Mutex
	nextID     int64
	nextItemID int64
	rows       map[int64]domain.Order
	now        func() time.Time

	// FailCreate makes CreateOrderTx fail, for exercising compensation.
	FailCreate error
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{rows: map[int64]domain.Order{}, now: time.Now}
}

func (r *OrderRepo) CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCreate != nil {
		return domain.Order{}, r.FailCreate
	}

	r.nextID++
	now := r.now().UTC()
	order.ID = r.nextID
	order.CreatedAt, order.UpdatedAt = now, now
	order.OrderItems = slices.Clone(order.OrderItems)
	for i := range order.OrderItems {
		r.nextItemID++
		order.OrderItems[i].ID = r.nextItemID
		order.OrderItems[i].OrderID = order.ID
	}
	r.rows[order.ID] = order
	return clone(order), nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.rows[id]
	if !ok {
		return domain.Order{}, app.ErrNotFound
	}
	return clone(o), nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Order{}
	for _, o := range r.rows {
		if o.UserID == userID {
			out = append(out, clone(o))
		}
	}
	// newest first, matching the SQL store
	slices.SortFunc(out, func(a, b domain.Order) int { return int(b.ID - a.ID) })
	return out, nil
}

func (r *OrderRepo) TransitionStatus(ctx context.Context, id int64, from, to domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.rows[id]
	if !ok {
		return false, app.ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = r.now().UTC()
	r.rows[id] = o
	return true, nil
}

func clone(o domain.Order) domain.Order {
	o.OrderItems = slices.Clone(o.OrderItems)
	return o
}
