// Package http is the cart service HTTP surface consumed through the gateway.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dwikikusuma/shopmesh/internal/cart/app"
	"github.com/dwikikusuma/shopmesh/internal/cart/domain"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes registers the cart endpoints. extra lets sibling contexts (quote)
// hang static routes under /cart before the /{id} catch.
func (h *Handler) Routes(r chi.Router, extra ...func(chi.Router)) {
	r.Route("/cart", func(r chi.Router) {
		for _, fn := range extra {
			fn(r)
		}
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/me", h.me)
		r.Post("/get", h.get)
		r.Post("/items", h.addItem)
		r.Patch("/items/quantity", h.updateQuantity)
		r.Delete("/items/{userId}/{productId}", h.removeItem)
		r.Delete("/clear/{userId}", h.clear)
		r.Get("/{id}", h.getByID)
		r.Put("/{id}", h.replace)
		r.Delete("/{id}", h.delete)
	})
}

type itemView struct {
	ID        int64     `json:"id"`
	CartID    int64     `json:"cartId"`
	ProductID int64     `json:"productId"`
	Quantity  int32     `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type cartView struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Items     []itemView `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func toView(c domain.Cart) cartView {
	v := cartView{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     make([]itemView, 0, len(c.Items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, it := range c.Items {
		v.Items = append(v.Items, itemView{
			ID:        it.ID,
			CartID:    it.CartID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			CreatedAt: it.CreatedAt,
			UpdatedAt: it.UpdatedAt,
		})
	}
	return v
}

var errNoUser = errors.New("userId is required")

// callerID prefers the gateway-injected header over any id supplied in the
// body or path; the latter is only honoured for internal callers that do
// not pass through the gateway.
func callerID(r *http.Request, fallback *int64) (int64, error) {
	if strings.TrimSpace(r.Header.Get(httpx.HeaderUserID)) != "" {
		return httpx.UserID(r)
	}
	if fallback != nil && *fallback > 0 {
		return *fallback, nil
	}
	return 0, errNoUser
}

type userRequest struct {
	UserID *int64 `json:"userId"`
}

type itemRequest struct {
	UserID    *int64 `json:"userId"`
	ProductID int64  `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

type replaceRequest struct {
	Items []struct {
		ProductID int64 `json:"productId"`
		Quantity  int32 `json:"quantity"`
	} `json:"items"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !h.readOptional(w, r, &req) {
		return
	}
	userID, err := callerID(r, req.UserID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.svc.GetCart(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toView(c))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !h.readOptional(w, r, &req) {
		return
	}
	h.respondCart(w, r, req.UserID)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, r, nil)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, fallback *int64) {
	userID, err := callerID(r, fallback)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.svc.GetCart(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	userID, err := callerID(r, req.UserID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.svc.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toView(c))
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	userID, err := callerID(r, req.UserID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.svc.UpdateItemQuantity(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	pathUser, okUser := httpx.PathInt(chi.URLParam(r, "userId"))
	productID, okProduct := httpx.PathInt(chi.URLParam(r, "productId"))
	if !okUser || !okProduct {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	userID, err := callerID(r, &pathUser)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.svc.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	pathUser, ok := httpx.PathInt(chi.URLParam(r, "userId"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	userID, err := callerID(r, &pathUser)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.svc.ClearCart(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	carts, err := h.svc.ListCarts(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]cartView, 0, len(carts))
	for _, c := range carts {
		out = append(out, toView(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathInt(chi.URLParam(r, "id"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	c, err := h.svc.GetCartByID(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathInt(chi.URLParam(r, "id"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	var req replaceRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	c, err := h.svc.ReplaceItems(r.Context(), id, items)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathInt(chi.URLParam(r, "id"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return
	}
	if err := h.svc.DeleteCart(r.Context(), id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readOptional decodes a body when one was sent.
func (h *Handler) readOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return true
	}
	if err := httpx.ReadJSON(r, dst); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return false
	}
	return true
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, httpx.ErrMissingUser):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidArgument):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInsufficientStock), errors.Is(err, app.ErrConflict):
		httpx.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrDependencyUnavailable):
		h.log.Warn("catalog unavailable", slog.String("path", r.URL.Path), slog.Any("err", err))
		httpx.WriteError(w, r, http.StatusServiceUnavailable, "Product service unavailable")
	default:
		h.log.Error("cart request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
