// Package httpapi is the gateway HTTP entrypoint: classify, authenticate,
// then forward.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dwikikusuma/shopmesh/internal/gateway/auth"
	"github.com/dwikikusuma/shopmesh/internal/gateway/proxy"
	"github.com/dwikikusuma/shopmesh/internal/gateway/registry"
	"github.com/dwikikusuma/shopmesh/internal/gateway/routing"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
)

type Deps struct {
	Prefix      string
	Classifier  *routing.Classifier
	Verifier    *auth.Verifier
	Forwarder   *proxy.Forwarder
	CORSOrigins []string
	Log         *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RemoteAddr stays the TCP peer; proxy appends it to X-Forwarded-For
	r.Use(httpx.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httpx.HeaderRequestID},
			ExposedHeaders:   []string{httpx.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	httpx.Health(r)

	h := &gateway{classifier: d.Classifier, verifier: d.Verifier, forwarder: d.Forwarder, log: d.Log}
	if d.Prefix == "" {
		r.Handle("/*", h)
	} else {
		r.Handle(d.Prefix, h)
		r.Handle(d.Prefix+"/*", h)
	}
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(w, req, http.StatusNotFound, "Cannot "+req.Method+" "+req.URL.Path)
	})
	return r
}

type gateway struct {
	classifier *routing.Classifier
	verifier   *auth.Verifier
	forwarder  *proxy.Forwarder
	log        *slog.Logger
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m, err := g.classifier.Classify(r.Method, r.URL.Path)
	if err != nil {
		httpx.WriteError(w, r, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
		return
	}

	var id *auth.Identity
	if !m.Route.Public {
		ident, err := g.verifier.Verify(r)
		if err != nil {
			g.log.Debug("rejected request", slog.String("path", r.URL.Path), slog.Any("err", err))
			httpx.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !ident.HasAnyRole(m.Route.RequiredRoles) {
			httpx.WriteError(w, r, http.StatusForbidden, "Forbidden resource")
			return
		}
		id = &ident
	}

	if err := g.forwarder.Forward(w, r, m, id); err != nil {
		g.writeForwardErr(w, r, err)
	}
}

func (g *gateway) writeForwardErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registry.ErrServiceNotFound):
		g.log.Error("route targets unregistered service", slog.String("path", r.URL.Path), slog.Any("err", err))
		httpx.WriteError(w, r, http.StatusInternalServerError, "Service not found")
	case errors.Is(err, proxy.ErrServiceUnavailable):
		g.log.Warn("downstream unavailable", slog.String("path", r.URL.Path), slog.Any("err", err))
		httpx.WriteError(w, r, http.StatusServiceUnavailable, "Service unavailable")
	default:
		g.log.Error("forward failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
