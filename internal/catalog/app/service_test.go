package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dwikikusuma/shopmesh/internal/catalog/domain"
)

type fakeRepo struct {
	products map[int64]domain.Product
	adjusted []int32
}

func (f *fakeRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) { return p, nil }
func (f *fakeRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}
func (f *fakeRepo) GetMany(ctx context.Context, ids []int64) ([]domain.Product, error) {
	var out []domain.Product
	// reverse order on purpose; the service restores request order
	for i := len(ids) - 1; i >= 0; i-- {
		if p, ok := f.products[ids[i]]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakeRepo) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	return nil, "", nil
}
func (f *fakeRepo) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	return patch.Apply(f.products[id]), nil
}
func (f *fakeRepo) Delete(ctx context.Context, id int64) error { return nil }
func (f *fakeRepo) AdjustStock(ctx context.Context, id int64, delta int32) (domain.Product, error) {
	f.adjusted = append(f.adjusted, delta)
	return f.products[id], nil
}

func newFake() *fakeRepo {
	return &fakeRepo{products: map[int64]domain.Product{
		1: {ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("49.90"), Stock: 5},
		2: {ID: 2, Name: "Mouse", Price: decimal.RequireFromString("19.00"), Stock: 0},
	}}
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newFake())

	t.Run("short name -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(context.Background(), "  ab ", "x", decimal.NewFromInt(1), 1)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("negative price -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(context.Background(), "Keyboard", "x", decimal.NewFromInt(-1), 1)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("negative stock -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(context.Background(), "Keyboard", "x", decimal.NewFromInt(10), -1)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		p, err := svc.CreateProduct(context.Background(), " Keyboard ", "x", decimal.NewFromInt(10), 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "Keyboard" {
			t.Fatalf("name not trimmed: %q", p.Name)
		}
	})
}

func TestCheckAvailability(t *testing.T) {
	svc := NewService(newFake())
	ctx := context.Background()

	tests := []struct {
		name      string
		id        int64
		qty       int32
		available bool
		message   string
	}{
		{"enough", 1, 5, true, ""},
		{"short", 1, 6, false, "Not enough stock. Available: 5, requested: 6"},
		{"empty", 2, 1, false, "Not enough stock. Available: 0, requested: 1"},
		{"missing", 99, 1, false, "Product not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := svc.CheckAvailability(ctx, tt.id, tt.qty)
			if err != nil {
				t.Fatalf("availability is never an error, got %v", err)
			}
			if a.Available != tt.available || a.Message != tt.message {
				t.Fatalf("got %+v", a)
			}
		})
	}

	if _, err := svc.CheckAvailability(ctx, 1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero quantity, got %v", err)
	}
}

func TestGetProductsByIDsOmitsMissing(t *testing.T) {
	svc := NewService(newFake())

	got, err := svc.GetProductsByIDs(context.Background(), []int64{2, 42, 1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("expected [2 1], got %+v", got)
	}

	if _, err := svc.GetProductsByIDs(context.Background(), []int64{1, 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReserveReleaseDirection(t *testing.T) {
	repo := newFake()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.ReserveStock(ctx, 1, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReleaseStock(ctx, 1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReserveStock(ctx, 1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.adjusted) != 2 || repo.adjusted[0] != -3 || repo.adjusted[1] != 2 {
		t.Fatalf("unexpected adjustments %v", repo.adjusted)
	}
}

func TestUpdateProductValidatesResult(t *testing.T) {
	svc := NewService(newFake())
	neg := decimal.NewFromInt(-5)

	if _, err := svc.UpdateProduct(context.Background(), 1, domain.ProductPatch{Price: &neg}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.UpdateProduct(context.Background(), 1, domain.ProductPatch{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty patch, got %v", err)
	}
	name := "Gaming Keyboard"
	p, err := svc.UpdateProduct(context.Background(), 1, domain.ProductPatch{Name: &name})
	if err != nil || p.Name != name {
		t.Fatalf("got %+v, %v", p, err)
	}
}
