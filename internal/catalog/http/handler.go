// Package http serves the product API under /api/products.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dwikikusuma/shopmesh/internal/catalog/app"
	"github.com/dwikikusuma/shopmesh/internal/catalog/domain"
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
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type productView struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func toView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type listResponse struct {
	Products   []productView `json:"products"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	products, next, err := h.svc.ListProducts(r.Context(), q.Get("q"), limit, q.Get("cursor"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := listResponse{Products: make([]productView, 0, len(products)), NextCursor: next}
	for _, p := range products {
		out.Products = append(out.Products, toView(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathInt(chi.URLParam(r, "id"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(p))
}

type createRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int32            `json:"stock"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.Price == nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", "price should not be empty")
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), req.Name, req.Description, *req.Price, req.Stock)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toView(p))
}

type updateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int32           `json:"stock"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathInt(chi.URLParam(r, "id"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	var req updateRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), id, domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathInt(chi.URLParam(r, "id"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, "Product not found")
	case errors.Is(err, app.ErrInsufficientStock):
		httpx.WriteError(w, r, http.StatusConflict, err.Error())
	default:
		h.log.Error("product request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
