package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/dwikikusuma/shopmesh/internal/catalog/domain"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	minNameLen  = 3
	maxBatchIDs = 500
)

type Service struct {
	repo ProductRepo
}

func NewService(repo ProductRepo) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) CreateProduct(ctx context.Context, name, desc string, price decimal.Decimal, stock int32) (domain.Product, error) {
	name = strings.TrimSpace(name)

	if err := validateProduct(name, price, stock); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		Name:        name,
		Description: strings.TrimSpace(desc),
		Price:       price,
		Stock:       stock,
	}

	product, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

func validateProduct(name string, price decimal.Decimal, stock int32) error {
	if utf8.RuneCountInString(name) < minNameLen {
		return fmt.Errorf("%w: name must be at least %d characters", ErrInvalidInput, minNameLen)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

// GetProductsByIDs resolves each id independently. Ids that do not exist are
// left out of the result; the rest keep the order of the request.
func (s *Service) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) > maxBatchIDs {
		return nil, fmt.Errorf("%w: at most %d ids per call", ErrInvalidInput, maxBatchIDs)
	}

	seen := make(map[int64]bool, len(ids))
	uniq := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: id %d", ErrInvalidInput, id)
		}
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return []domain.Product{}, nil
	}

	found, err := s.repo.GetMany(ctx, uniq)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	out := make([]domain.Product, 0, len(found))
	for _, id := range uniq {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) ListProducts(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, query, limit, cursor)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	if id <= 0 || patch.Empty() {
		return domain.Product{}, ErrInvalidInput
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	next := patch.Apply(current)
	if err := validateProduct(next.Name, next.Price, next.Stock); err != nil {
		return domain.Product{}, err
	}

	return s.repo.Update(ctx, id, patch)
}

// DeleteProduct is idempotent.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// CheckAvailability never fails for a missing product or low stock; those
// come back as Available=false with a message.
func (s *Service) CheckAvailability(ctx context.Context, id int64, quantity int32) (domain.Availability, error) {
	if id <= 0 || quantity < 1 {
		return domain.Availability{}, ErrInvalidInput
	}

	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return domain.Availability{Available: false, Message: "Product not found"}, nil
	}
	if err != nil {
		return domain.Availability{}, err
	}

	if p.Stock < quantity {
		return domain.Availability{
			Available:      false,
			AvailableStock: p.Stock,
			Price:          p.Price,
			Message:        fmt.Sprintf("Not enough stock. Available: %d, requested: %d", p.Stock, quantity),
		}, nil
	}

	return domain.Availability{Available: true, AvailableStock: p.Stock, Price: p.Price}, nil
}

// ReserveStock takes quantity units out of stock, or fails with
// ErrInsufficientStock leaving stock untouched.
func (s *Service) ReserveStock(ctx context.Context, id int64, quantity int32) (domain.Product, error) {
	if id <= 0 || quantity < 1 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.AdjustStock(ctx, id, -quantity)
}

// ReleaseStock puts quantity units back. There is no upper bound: a caller
// releasing twice inflates stock.
func (s *Service) ReleaseStock(ctx context.Context, id int64, quantity int32) (domain.Product, error) {
	if id <= 0 || quantity < 1 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.AdjustStock(ctx, id, quantity)
}
