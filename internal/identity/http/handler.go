// Package http serves registration, login and user administration.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dwikikusuma/shopmesh/internal/identity/app"
	"github.com/dwikikusuma/shopmesh/internal/identity/domain"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts /api/auth and /api/users. Role checks for /api/users
// happen at the gateway.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/registration", h.register)
		r.Post("/login", h.login)
	})
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/roles", h.addRole)
		r.Post("/addRole", h.addRole)
		r.Post("/ban", h.ban)
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userView struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	Banned    bool      `json:"banned"`
	BanReason string    `json:"banReason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toView(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Roles:     u.Roles,
		Banned:    u.Banned,
		BanReason: u.BanReason,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	token, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toView(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type addRoleRequest struct {
	UserID int64  `json:"userId"`
	Value  string `json:"value"`
}

func (h *Handler) addRole(w http.ResponseWriter, r *http.Request) {
	var req addRoleRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	u, err := h.svc.AddRole(r.Context(), req.UserID, req.Value)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(u))
}

type banRequest struct {
	UserID int64  `json:"userId"`
	Reason string `json:"reason"`
}

func (h *Handler) ban(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	u, err := h.svc.Ban(r.Context(), req.UserID, req.Reason)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(u))
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrUnknownRole):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailTaken):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, "User or role not found")
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrBanned):
		httpx.WriteError(w, r, http.StatusUnauthorized, "Invalid email or password")
	default:
		h.log.Error("identity request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
