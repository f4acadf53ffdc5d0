// Package http serves the priced cart view at GET /cart/quote.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dwikikusuma/shopmesh/internal/checkout/app"
	"github.com/dwikikusuma/shopmesh/internal/checkout/domain"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes is meant to be mounted inside the /cart route group.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/quote", h.quote)
}

type lineView struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	InStock   int32           `json:"inStock"`
}

type quoteView struct {
	UserID int64           `json:"userId"`
	Lines  []lineView      `json:"lines"`
	Total  decimal.Decimal `json:"total"`
}

func toView(q domain.Quote) quoteView {
	v := quoteView{UserID: q.UserID, Lines: make([]lineView, 0, len(q.Lines)), Total: q.Total}
	for _, ln := range q.Lines {
		v.Lines = append(v.Lines, lineView{
			ProductID: ln.ProductID,
			Name:      ln.Name,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
			LineTotal: ln.LineTotal,
			InStock:   ln.InStock,
		})
	}
	return v
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.UserID(r)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	q, err := h.svc.Quote(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrEmptyCart):
			httpx.WriteError(w, r, http.StatusNotFound, "cart is empty")
		case errors.Is(err, app.ErrProductNotFound):
			httpx.WriteError(w, r, http.StatusNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidArgument):
			httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrDependencyUnavailable):
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "Product service unavailable")
		default:
			h.log.Error("quote failed", slog.Int64("user_id", userID), slog.Any("err", err))
			httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(q))
}
