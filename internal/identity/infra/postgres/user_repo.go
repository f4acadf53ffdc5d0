package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dwikikusuma/shopmesh/internal/identity/app"
	"github.com/dwikikusuma/shopmesh/internal/identity/domain"
	"github.com/dwikikusuma/shopmesh/pkg/postgres"
)

//go:embed schema.sql
var Schema string

const selectUser = `
	SELECT u.id, u.email, u.password_hash, u.banned, u.ban_reason, u.created_at, u.updated_at,
	       COALESCE(string_agg(r.role, ',' ORDER BY r.role), '')
	FROM users u
	LEFT JOIN user_roles r ON r.user_id = u.id`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	err := postgres.ExecTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash)
			VALUES ($1, $2)
			RETURNING id`, u.Email, u.PasswordHash).Scan(&u.ID)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return app.ErrEmailTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		for _, role := range u.Roles {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				u.ID, role); err != nil {
				return fmt.Errorf("insert role: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return r.GetByID(ctx, u.ID)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.id = $1 GROUP BY u.id`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.email = $1 GROUP BY u.id`, email)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, app.ErrNotFound
	}
	return u, err
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` GROUP BY u.id ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) AddRole(ctx context.Context, id int64, role string) (domain.User, error) {
	err := postgres.ExecTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, role); err != nil {
			if isFKViolation(err) {
				return app.ErrNotFound
			}
			return fmt.Errorf("insert role: %w", err)
		}
		_, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = NOW() WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) Ban(ctx context.Context, id int64, reason string) (domain.User, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET banned = TRUE, ban_reason = $2, updated_at = NOW() WHERE id = $1`,
		id, reason)
	if err != nil {
		return domain.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, app.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u     domain.User
		roles string
	)
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Banned, &u.BanReason,
		&u.CreatedAt, &u.UpdatedAt, &roles); err != nil {
		return domain.User{}, err
	}
	u.Roles = []string{}
	if roles != "" {
		u.Roles = strings.Split(roles, ",")
	}
	return u, nil
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
