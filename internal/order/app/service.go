package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dwikikusuma/shopmesh/internal/order/domain"
)

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNotFound              = errors.New("not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrDependencyUnavailable = errors.New("product service unavailable")
)

const maxItems = 100

type Service struct {
	repo OrderRepo
	inv  Inventory
	log  *slog.Logger
}

func NewService(repo OrderRepo, inv Inventory, log *slog.Logger) *Service {
	return &Service{repo: repo, inv: inv, log: log}
}

// CreateOrder prices the items from the catalog, reserves stock line by
// line and stores the order. Reservations already taken are released when a
// later line or the insert fails.
func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	if err := validate(req); err != nil {
		return domain.Order{}, err
	}

	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.inv.ProductsByIDs(ctx, ids)
	if err != nil {
		return domain.Order{}, err
	}
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	orderItems := make([]domain.OrderItem, 0, len(req.Items))
	subTotalAmount := decimal.Zero
	for _, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: product %d", ErrNotFound, item.ProductID)
		}
		line := p.Price.Mul(decimal.NewFromInt32(item.Quantity))
		orderItems = append(orderItems, domain.OrderItem{
			ProductID:       item.ProductID,
			Name:            p.Name,
			UnitAmount:      p.Price,
			Quantity:        item.Quantity,
			LineTotalAmount: line,
		})
		subTotalAmount = subTotalAmount.Add(line)
	}

	reserved := make([]domain.OrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		if err := s.inv.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			s.release(ctx, reserved)
			return domain.Order{}, err
		}
		reserved = append(reserved, item)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	order := domain.Order{
		UserID:         req.UserID,
		Status:         domain.StatusPending,
		Currency:       currency,
		ShippingAmount: req.ShippingAmount,
		SubTotalAmount: subTotalAmount,
		TotalAmount:    subTotalAmount.Add(req.ShippingAmount),
		OrderItems:     orderItems,
	}

	created, err := s.repo.CreateOrderTx(ctx, order)
	if err != nil {
		s.release(ctx, reserved)
		return domain.Order{}, fmt.Errorf("store order: %w", err)
	}
	return created, nil
}

func validate(req domain.CreateOrderRequest) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userId must be positive", ErrInvalidArgument)
	}
	if len(req.Items) == 0 || len(req.Items) > maxItems {
		return fmt.Errorf("%w: order needs 1 to %d items", ErrInvalidArgument, maxItems)
	}
	if req.ShippingAmount.IsNegative() {
		return fmt.Errorf("%w: shipping amount cannot be negative, got %s", ErrInvalidArgument, req.ShippingAmount)
	}
	seen := make(map[int64]struct{}, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: item %d: productId must be positive", ErrInvalidArgument, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive, got %d", ErrInvalidArgument, i, item.Quantity)
		}
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("%w: item %d: product %d listed twice", ErrInvalidArgument, i, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

// release gives reserved stock back. It runs detached from the caller so a
// cancelled request still returns what it took.
func (s *Service) release(ctx context.Context, items []domain.OrderItemRequest) {
	ctx = context.WithoutCancel(ctx)
	for _, item := range items {
		if err := s.inv.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.log.Error("release stock failed",
				slog.Int64("product_id", item.ProductID),
				slog.Int("quantity", int(item.Quantity)),
				slog.Any("err", err),
			)
		}
	}
}

// GetOrder hides orders of other users behind ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (domain.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.UserID != userID {
		return domain.Order{}, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	if userID <= 0 {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListByUser(ctx, userID)
}

// CancelOrder releases the order's stock once. Cancelling an already
// cancelled order returns it unchanged.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID int64) (domain.Order, error) {
	o, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.Status == domain.StatusCancelled {
		return o, nil
	}

	moved, err := s.repo.TransitionStatus(ctx, orderID, domain.StatusPending, domain.StatusCancelled)
	if err != nil {
		return domain.Order{}, err
	}
	if moved {
		items := make([]domain.OrderItemRequest, 0, len(o.OrderItems))
		for _, it := range o.OrderItems {
			items = append(items, domain.OrderItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		s.release(ctx, items)
	}
	return s.repo.GetOrder(ctx, orderID)
}
