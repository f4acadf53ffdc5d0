// Package registry maps logical service names to their base addresses.
package registry

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Service string

const (
	Identity Service = "identity"
	Catalog  Service = "catalog"
	Cart     Service = "cart"
	Order    Service = "order"
)

var ErrServiceNotFound = errors.New("service not found")

// Registry is immutable after New.
type Registry struct {
	bases map[Service]*url.URL
}

// New parses every configured base address. Empty entries are skipped so a
// gateway can run with a subset of services.
func New(addrs map[string]string) (*Registry, error) {
	r := &Registry{bases: make(map[Service]*url.URL, len(addrs))}
	for name, raw := range addrs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(strings.TrimRight(raw, "/"))
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("service %s: base address %q must be an absolute http(s) url", name, raw)
		}
		r.bases[Service(strings.ToLower(name))] = u
	}
	return r, nil
}

// Resolve returns a copy of the base address for svc.
func (r *Registry) Resolve(svc Service) (*url.URL, error) {
	u, ok := r.bases[svc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, svc)
	}
	cp := *u
	return &cp, nil
}
