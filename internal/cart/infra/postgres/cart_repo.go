package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dwikikusuma/shopmesh/internal/cart/app"
	"github.com/dwikikusuma/shopmesh/internal/cart/domain"
	"github.com/dwikikusuma/shopmesh/pkg/postgres"
)

//go:embed schema.sql
var Schema string

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) GetByUser(ctx context.Context, userID int64) (domain.Cart, error) {
	return r.getCart(ctx, `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID)
}

func (r *CartRepo) GetByID(ctx context.Context, cartID int64) (domain.Cart, error) {
	return r.getCart(ctx, `SELECT id, user_id, created_at, updated_at FROM carts WHERE id = $1`, cartID)
}

func (r *CartRepo) getCart(ctx context.Context, query string, arg int64) (domain.Cart, error) {
	var c domain.Cart
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}

	items, err := r.listItems(ctx, c.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	c.Items = items
	return c, nil
}

func (r *CartRepo) listItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, cart_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *CartRepo) List(ctx context.Context) ([]domain.Cart, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, created_at, updated_at FROM carts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carts []domain.Cart
	for rows.Next() {
		var c domain.Cart
		if err := rows.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		carts = append(carts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range carts {
		items, err := r.listItems(ctx, carts[i].ID)
		if err != nil {
			return nil, err
		}
		carts[i].Items = items
	}
	return carts, nil
}

func (r *CartRepo) Create(ctx context.Context, userID int64) (domain.Cart, error) {
	var c domain.Cart
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		RETURNING id, user_id, created_at, updated_at`, userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return domain.Cart{}, app.ErrConflict
	}
	if err != nil {
		return domain.Cart{}, err
	}
	c.Items = []domain.CartItem{}
	return c, nil
}

// Delete relies on ON DELETE CASCADE for the items.
func (r *CartRepo) Delete(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}

func (r *CartRepo) GetItem(ctx context.Context, cartID, productID int64) (domain.CartItem, error) {
	var it domain.CartItem
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2`, cartID, productID,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CartItem{}, app.ErrNotFound
	}
	if err != nil {
		return domain.CartItem{}, err
	}
	return it, nil
}

// AddItem is a single upsert so two concurrent adds of the same product both
// land in one row with the summed quantity.
func (r *CartRepo) AddItem(ctx context.Context, cartID, productID int64, quantity int32) error {
	return postgres.ExecTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()`,
			cartID, productID, quantity,
		)
		if err != nil {
			return mapFK(err)
		}
		return touch(ctx, tx, cartID)
	})
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int32) error {
	return postgres.ExecTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE cart_items SET quantity = $3, updated_at = now()
			WHERE cart_id = $1 AND product_id = $2`, cartID, productID, quantity)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return app.ErrNotFound
		}
		return touch(ctx, tx, cartID)
	})
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	return err
}

func (r *CartRepo) ClearItems(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

func (r *CartRepo) ReplaceItems(ctx context.Context, cartID int64, items []domain.LineItem) error {
	return postgres.ExecTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return err
		}
		for _, it := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)`,
				cartID, it.ProductID, it.Quantity)
			if err != nil {
				return mapFK(err)
			}
		}
		return touch(ctx, tx, cartID)
	})
}

func touch(ctx context.Context, tx *sql.Tx, cartID int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}

// mapFK reports a cart deleted underneath an item write as not found.
func mapFK(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return app.ErrNotFound
	}
	return err
}
