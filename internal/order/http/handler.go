// Package http serves the caller's orders under /orders.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dwikikusuma/shopmesh/internal/order/app"
	"github.com/dwikikusuma/shopmesh/internal/order/domain"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/cancel", h.cancel)
	})
}

type itemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

type createRequest struct {
	Items          []itemRequest   `json:"items"`
	ShippingAmount decimal.Decimal `json:"shippingAmount"`
	Currency       string          `json:"currency"`
}

type itemView struct {
	ProductID       int64           `json:"productId"`
	Name            string          `json:"name"`
	UnitAmount      decimal.Decimal `json:"unitAmount"`
	Quantity        int32           `json:"quantity"`
	LineTotalAmount decimal.Decimal `json:"lineTotalAmount"`
}

type orderView struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"userId"`
	Status         domain.Status   `json:"status"`
	Currency       string          `json:"currency"`
	SubTotalAmount decimal.Decimal `json:"subTotalAmount"`
	ShippingAmount decimal.Decimal `json:"shippingAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Items          []itemView      `json:"items"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toView(o domain.Order) orderView {
	items := make([]itemView, 0, len(o.OrderItems))
	for _, it := range o.OrderItems {
		items = append(items, itemView{
			ProductID:       it.ProductID,
			Name:            it.Name,
			UnitAmount:      it.UnitAmount,
			Quantity:        it.Quantity,
			LineTotalAmount: it.LineTotalAmount,
		})
	}
	return orderView{
		ID:             o.ID,
		UserID:         o.UserID,
		Status:         o.Status,
		Currency:       o.Currency,
		SubTotalAmount: o.SubTotalAmount,
		ShippingAmount: o.ShippingAmount,
		TotalAmount:    o.TotalAmount,
		Items:          items,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.UserID(r)
	if err != nil {
		httpx.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req createRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	items := make([]domain.OrderItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := h.svc.CreateOrder(r.Context(), domain.CreateOrderRequest{
		UserID:         userID,
		Currency:       req.Currency,
		ShippingAmount: req.ShippingAmount,
		Items:          items,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toView(o))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.UserID(r)
	if err != nil {
		httpx.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orders, err := h.svc.ListOrders(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toView(o))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.svc.GetOrder)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.svc.CancelOrder)
}

func (h *Handler) withOrder(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, orderID int64) (domain.Order, error)) {
	userID, err := httpx.UserID(r)
	if err != nil {
		httpx.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := httpx.PathInt(chi.URLParam(r, "id"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	o, err := fn(r.Context(), userID, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(o))
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidArgument):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInsufficientStock):
		httpx.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrDependencyUnavailable):
		httpx.WriteError(w, r, http.StatusServiceUnavailable, "Product service unavailable")
	default:
		h.log.Error("order request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
