package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/dwikikusuma/shopmesh/internal/cart/domain"
)

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

type Service struct {
	repo  CartRepo
	stock StockChecker
	log   *slog.Logger
}

type Option func(*Service)

// WithStockChecker makes item mutations consult catalog first.
func WithStockChecker(c StockChecker) Option {
	return func(s *Service) { s.stock = c }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(repo CartRepo, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureCart returns the user's cart, creating it on first use. Concurrent
// and repeated calls for one user all observe the same cart: creation relies
// on the store's uniqueness constraint and re-reads when it loses the race.
func (s *Service) EnsureCart(ctx context.Context, userID int64) (domain.Cart, error) {
	if userID <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: userId must be positive", ErrInvalidArgument)
	}

	cart, err := s.repo.GetByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Cart{}, err
	}

	cart, err = s.repo.Create(ctx, userID)
	if err == nil {
		s.log.Info("cart created", slog.Int64("user_id", userID), slog.Int64("cart_id", cart.ID))
		return cart, nil
	}
	if errors.Is(err, ErrConflict) {
		return s.repo.GetByUser(ctx, userID)
	}
	return domain.Cart{}, err
}

func (s *Service) GetCart(ctx context.Context, userID int64) (domain.Cart, error) {
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// AddItem merges quantity into the existing line for productID, or creates it.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int32) (domain.Cart, error) {
	if err := validateLine(productID, quantity); err != nil {
		return domain.Cart{}, err
	}
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	resulting := int64(quantity)
	existing, err := s.repo.GetItem(ctx, cart.ID, productID)
	switch {
	case err == nil:
		resulting += int64(existing.Quantity)
	case !errors.Is(err, ErrNotFound):
		return domain.Cart{}, err
	}
	if resulting > math.MaxInt32 {
		return domain.Cart{}, fmt.Errorf("%w: quantity too large", ErrInvalidArgument)
	}
	if err := s.checkStock(ctx, productID, int32(resulting)); err != nil {
		return domain.Cart{}, err
	}

	if err := s.repo.AddItem(ctx, cart.ID, productID, quantity); err != nil {
		return domain.Cart{}, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// UpdateItemQuantity replaces the quantity of an existing line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID int64, quantity int32) (domain.Cart, error) {
	if err := validateLine(productID, quantity); err != nil {
		return domain.Cart{}, err
	}
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	if _, err := s.repo.GetItem(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Cart{}, fmt.Errorf("%w: cart item not found for userId=%d, productId=%d", ErrNotFound, userID, productID)
		}
		return domain.Cart{}, err
	}
	if err := s.checkStock(ctx, productID, quantity); err != nil {
		return domain.Cart{}, err
	}

	if err := s.repo.SetItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return domain.Cart{}, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// RemoveItem is idempotent: removing an absent line returns the cart as is.
func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) (domain.Cart, error) {
	if productID <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: productId must be positive", ErrInvalidArgument)
	}
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
		return domain.Cart{}, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

func (s *Service) ClearCart(ctx context.Context, userID int64) (domain.Cart, error) {
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return domain.Cart{}, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// ReplaceItems swaps the whole item list of a cart in one step.
func (s *Service) ReplaceItems(ctx context.Context, cartID int64, items []domain.LineItem) (domain.Cart, error) {
	if cartID <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: cart id must be positive", ErrInvalidArgument)
	}
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if err := validateLine(it.ProductID, it.Quantity); err != nil {
			return domain.Cart{}, err
		}
		if seen[it.ProductID] {
			return domain.Cart{}, fmt.Errorf("%w: product %d listed twice", ErrInvalidArgument, it.ProductID)
		}
		seen[it.ProductID] = true
	}

	if _, err := s.repo.GetByID(ctx, cartID); err != nil {
		return domain.Cart{}, err
	}
	for _, it := range items {
		if err := s.checkStock(ctx, it.ProductID, it.Quantity); err != nil {
			return domain.Cart{}, err
		}
	}

	if err := s.repo.ReplaceItems(ctx, cartID, items); err != nil {
		return domain.Cart{}, err
	}
	return s.repo.GetByID(ctx, cartID)
}

func (s *Service) GetCartByID(ctx context.Context, cartID int64) (domain.Cart, error) {
	if cartID <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: cart id must be positive", ErrInvalidArgument)
	}
	return s.repo.GetByID(ctx, cartID)
}

func (s *Service) ListCarts(ctx context.Context) ([]domain.Cart, error) {
	return s.repo.List(ctx)
}

// DeleteCart removes the cart and its items. Deleting a missing cart is a no-op.
func (s *Service) DeleteCart(ctx context.Context, cartID int64) error {
	if cartID <= 0 {
		return fmt.Errorf("%w: cart id must be positive", ErrInvalidArgument)
	}
	return s.repo.Delete(ctx, cartID)
}

func validateLine(productID int64, quantity int32) error {
	if productID <= 0 {
		return fmt.Errorf("%w: productId must be positive", ErrInvalidArgument)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be >= 1", ErrInvalidArgument)
	}
	return nil
}

func (s *Service) checkStock(ctx context.Context, productID int64, quantity int32) error {
	if s.stock == nil {
		return nil
	}
	a, err := s.stock.CheckAvailability(ctx, productID, quantity)
	if err != nil {
		return err
	}
	if !a.Available {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, a.Message)
	}
	return nil
}
