package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/shopmesh/internal/cart/app"
	"github.com/dwikikusuma/shopmesh/internal/catalog/stockclient"
)

type StockAvailability interface {
	CheckAvailability(ctx context.Context, productID int64, quantity int32) (stockclient.Availability, error)
}

// StockChecker adapts the catalog stock client to the cart port.
type StockChecker struct {
	client StockAvailability
}

func NewStockChecker(c StockAvailability) *StockChecker {
	return &StockChecker{client: c}
}

func (s *StockChecker) CheckAvailability(ctx context.Context, productID int64, quantity int32) (app.Availability, error) {
	a, err := s.client.CheckAvailability(ctx, productID, quantity)
	if err != nil {
		switch {
		case errors.Is(err, stockclient.ErrDependencyUnavailable):
			return app.Availability{}, fmt.Errorf("%w: %v", app.ErrDependencyUnavailable, err)
		case errors.Is(err, stockclient.ErrInvalidArgument):
			return app.Availability{}, fmt.Errorf("%w: %v", app.ErrInvalidArgument, err)
		}
		return app.Availability{}, err
	}
	return app.Availability{Available: a.Available, Message: a.Message}, nil
}
