// Package memory is an in-process product store used for local runs and
// tests. It keeps the same guarantees as the SQL store.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dwikikusuma/shopmesh/internal/catalog/app"
	"github.com/dwikikusuma/shopmesh/internal/catalog/domain"
)

type ProductRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Product
	now    func() time.Time
}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{rows: map[int64]domain.Product{}, now: time.Now}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now().UTC()
	p.ID = r.nextID
	p.CreatedAt, p.UpdatedAt = now, now
	r.rows[p.ID] = p
	return p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.rows[id]
	if !ok {
		return domain.Product{}, app.ErrNotFound
	}
	return p, nil
}

func (r *ProductRepo) GetMany(ctx context.Context, ids []int64) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepo) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	var after int64
	if c := strings.TrimSpace(cursor); c != "" {
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil || n < 0 {
			return nil, "", app.ErrInvalidInput
		}
		after = n
	}
	query = strings.ToLower(strings.TrimSpace(query))

	r.mu.Lock()
	all := make([]domain.Product, 0, len(r.rows))
	for _, p := range r.rows {
		if p.ID <= after {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		all = append(all, p)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}

	var next string
	if len(all) == limit && limit > 0 {
		next = strconv.FormatInt(all[len(all)-1].ID, 10)
	}
	return all, next, nil
}

func (r *ProductRepo) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.rows[id]
	if !ok {
		return domain.Product{}, app.ErrNotFound
	}
	p = patch.Apply(p)
	p.UpdatedAt = r.now().UTC()
	r.rows[id] = p
	return p, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, id)
	return nil
}

func (r *ProductRepo) AdjustStock(ctx context.Context, id int64, delta int32) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.rows[id]
	if !ok {
		return domain.Product{}, app.ErrNotFound
	}
	next := int64(p.Stock) + int64(delta)
	if next < 0 {
		return domain.Product{}, app.ErrInsufficientStock
	}
	if next > math.MaxInt32 {
		return domain.Product{}, app.ErrInvalidInput
	}
	p.Stock = int32(next)
	p.UpdatedAt = r.now().UTC()
	r.rows[id] = p
	return p, nil
}
