// Package events provisions carts from identity events.
package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dwikikusuma/shopmesh/internal/cart/app"
	"github.com/dwikikusuma/shopmesh/internal/cart/domain"
	busevents "github.com/dwikikusuma/shopmesh/pkg/events"
	"github.com/dwikikusuma/shopmesh/pkg/kafka"
)

type Provisioner interface {
	EnsureCart(ctx context.Context, userID int64) (domain.Cart, error)
}

type Handler struct {
	carts  Provisioner
	router *busevents.Router
	log    *slog.Logger
}

func NewHandler(carts Provisioner, log *slog.Logger) *Handler {
	h := &Handler{carts: carts, router: busevents.NewRouter(log), log: log}
	h.router.Handle(busevents.TypeUserCreated, h.userCreated)
	return h
}

// Consume is the bus entrypoint. Malformed and foreign events are dropped.
func (h *Handler) Consume(ctx context.Context, msg kafka.Message) error {
	return h.router.Dispatch(ctx, msg.Value)
}

// Dispatch accepts any message shape the codec understands.
func (h *Handler) Dispatch(ctx context.Context, msg any) error {
	return h.router.Dispatch(ctx, msg)
}

func (h *Handler) userCreated(ctx context.Context, ev busevents.Raw) error {
	userID, ok := ev.Int64("userId")
	if !ok || userID <= 0 {
		h.log.Warn("UserCreated without a valid userId", slog.Any("userId", ev["userId"]))
		return nil
	}

	cart, err := h.carts.EnsureCart(ctx, userID)
	if err != nil {
		if errors.Is(err, app.ErrInvalidArgument) {
			return kafka.Permanent(err)
		}
		return err
	}
	h.log.Info("cart provisioned",
		slog.Int64("user_id", userID),
		slog.Int64("cart_id", cart.ID),
		slog.String("event_id", ev.String("eventId")),
	)
	return nil
}
