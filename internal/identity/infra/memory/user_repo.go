// Package memory holds users in process for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dwikikusuma/shopmesh/internal/identity/app"
	"github.com/dwikikusuma/shopmesh/internal/identity/domain"
)

type UserRepo struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]domain.User
	byEmail map[string]int64
	now     func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		rows:    map[int64]domain.User{},
		byEmail: map[string]int64{},
		now:     time.Now,
	}
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return domain.User{}, app.ErrEmailTaken
	}
	r.nextID++
	now := r.now().UTC()
	u.ID = r.nextID
	u.Roles = slices.Clone(u.Roles)
	u.CreatedAt, u.UpdatedAt = now, now
	r.rows[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return clone(u), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	if !ok {
		return domain.User{}, app.ErrNotFound
	}
	return clone(u), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, app.ErrNotFound
	}
	return clone(r.rows[id]), nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.User, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, clone(u))
	}
	slices.SortFunc(out, func(a, b domain.User) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r *UserRepo) AddRole(ctx context.Context, id int64, role string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	if !ok {
		return domain.User{}, app.ErrNotFound
	}
	if !u.HasRole(role) {
		u.Roles = append(slices.Clone(u.Roles), role)
		slices.Sort(u.Roles)
		u.UpdatedAt = r.now().UTC()
		r.rows[id] = u
	}
	return clone(u), nil
}

func (r *UserRepo) Ban(ctx context.Context, id int64, reason string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	if !ok {
		return domain.User{}, app.ErrNotFound
	}
	u.Banned = true
	u.BanReason = reason
	u.UpdatedAt = r.now().UTC()
	r.rows[id] = u
	return clone(u), nil
}

func clone(u domain.User) domain.User {
	u.Roles = slices.Clone(u.Roles)
	return u
}
