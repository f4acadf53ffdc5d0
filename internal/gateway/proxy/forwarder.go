package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwikikusuma/shopmesh/internal/gateway/auth"
	"github.com/dwikikusuma/shopmesh/internal/gateway/registry"
	"github.com/dwikikusuma/shopmesh/internal/gateway/routing"
)

var ErrServiceUnavailable = errors.New("service unavailable")

const DefaultTimeout = 30 * time.Second

type Forwarder struct {
	reg     *registry.Registry
	client  *http.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewForwarder(reg *registry.Registry, timeout time.Duration, log *slog.Logger) *Forwarder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32
	return &Forwarder{
		reg: reg,
		client: &http.Client{
			Transport: transport,
			// redirects are the caller's business
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		timeout: timeout,
		log:     log,
	}
}

// Forward relays r to the service owning m and copies the response back
// unchanged in status and body. It returns registry.ErrServiceNotFound or
// ErrServiceUnavailable only before anything has been written to w.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, m routing.Match, id *auth.Identity) error {
	base, err := f.reg.Resolve(m.Route.Target)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(r.Context(), f.timeout)
	defer cancel()

	out, err := Rewrite(ctx, r, Target{Base: base, Path: m.DownstreamPath}, id)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(out)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrServiceUnavailable, m.Route.Target, err)
	}
	defer resp.Body.Close()

	dst := w.Header()
	for k, vs := range cleanHeaders(resp.Header) {
		dst[k] = vs
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// headers are gone; all we can do is note it
		f.log.Warn("response copy interrupted",
			slog.String("target", string(m.Route.Target)),
			slog.String("path", m.DownstreamPath),
			slog.Any("err", err),
		)
	}
	return nil
}
