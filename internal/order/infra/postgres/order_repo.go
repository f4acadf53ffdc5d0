package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dwikikusuma/shopmesh/internal/order/app"
	"github.com/dwikikusuma/shopmesh/internal/order/domain"
	"github.com/dwikikusuma/shopmesh/pkg/postgres"
)

//go:embed schema.sql
var Schema string

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error) {
	var createdOrder domain.Order

	err := postgres.ExecTx(ctx, r.db, func(tx *sql.Tx) error {
		o := order
		err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (user_id, status, currency, subtotal_amount, shipping_amount, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			o.UserID, string(o.Status), o.Currency, o.SubTotalAmount, o.ShippingAmount, o.TotalAmount,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		orderItems := make([]domain.OrderItem, 0, len(order.OrderItems))
		for i, item := range order.OrderItems {
			expected := item.UnitAmount.Mul(decimal.NewFromInt32(item.Quantity))
			if !item.LineTotalAmount.Equal(expected) {
				return fmt.Errorf("item %d: line total mismatch", i)
			}

			item.OrderID = o.ID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO order_items (order_id, product_id, name, unit_amount, quantity, line_total_amount)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				item.OrderID, item.ProductID, item.Name, item.UnitAmount, item.Quantity, item.LineTotalAmount,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i, err)
			}
			orderItems = append(orderItems, item)
		}

		o.OrderItems = orderItems
		createdOrder = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return createdOrder, nil
}

const selectOrder = `
	SELECT id, user_id, status, currency, subtotal_amount, shipping_amount, total_amount, created_at, updated_at
	FROM orders`

func (r *OrderRepo) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: order %d", app.ErrNotFound, id)
	}
	if err != nil {
		return domain.Order{}, err
	}
	if o.OrderItems, err = r.listItems(ctx, o.ID); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrder+` WHERE user_id = $1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].OrderItems, err = r.listItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepo) TransitionStatus(ctx context.Context, id int64, from, to domain.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("%w: order %d", app.ErrNotFound, id)
	}
	return false, nil
}

func (r *OrderRepo) listItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, unit_amount, quantity, line_total_amount
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.UnitAmount, &it.Quantity, &it.LineTotalAmount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := s.Scan(&o.ID, &o.UserID, &status, &o.Currency, &o.SubTotalAmount, &o.ShippingAmount,
		&o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	o.Status = domain.Status(status)
	return o, err
}
