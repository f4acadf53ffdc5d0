// Package routing holds the gateway route descriptor table and the
// classifier that matches incoming requests against it.
package routing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dwikikusuma/shopmesh/internal/gateway/registry"
)

// Route describes who may call a path and where it is forwarded.
// Methods empty means any method.
type Route struct {
	Pattern        string           `yaml:"pattern"`
	Methods        []string         `yaml:"methods,omitempty"`
	Public         bool             `yaml:"public,omitempty"`
	RequiredRoles  []string         `yaml:"requiredRoles,omitempty"`
	Target         registry.Service `yaml:"target"`
	UpstreamPrefix string           `yaml:"upstreamPrefix,omitempty"`
}

type Table struct {
	Prefix string  `yaml:"prefix"`
	Routes []Route `yaml:"routes"`
}

var ErrInvalidTable = errors.New("invalid route table")

// DefaultTable is the route table compiled into the gateway.
func DefaultTable() Table {
	get := []string{http.MethodGet}
	return Table{
		Prefix: "/api",
		Routes: []Route{
			{Pattern: "/auth/registration", Methods: []string{http.MethodPost}, Public: true, Target: registry.Identity, UpstreamPrefix: "/api"},
			{Pattern: "/auth/login", Methods: []string{http.MethodPost}, Public: true, Target: registry.Identity, UpstreamPrefix: "/api"},

			{Pattern: "/users", RequiredRoles: []string{"ADMIN"}, Target: registry.Identity, UpstreamPrefix: "/api"},
			{Pattern: "/users/*", RequiredRoles: []string{"ADMIN"}, Target: registry.Identity, UpstreamPrefix: "/api"},

			{Pattern: "/products", Methods: get, Public: true, Target: registry.Catalog, UpstreamPrefix: "/api"},
			{Pattern: "/products", Target: registry.Catalog, UpstreamPrefix: "/api"},
			{Pattern: "/products/:id", Methods: get, Public: true, Target: registry.Catalog, UpstreamPrefix: "/api"},
			{Pattern: "/products/:id", Target: registry.Catalog, UpstreamPrefix: "/api"},

			// listing every cart and addressing one by id are back-office calls
			{Pattern: "/cart", Methods: get, RequiredRoles: []string{"ADMIN"}, Target: registry.Cart},
			{Pattern: "/cart/me", Methods: get, Target: registry.Cart},
			{Pattern: "/cart/quote", Methods: get, Target: registry.Cart},
			{Pattern: "/cart/:id", Methods: []string{http.MethodGet, http.MethodPut, http.MethodDelete}, RequiredRoles: []string{"ADMIN"}, Target: registry.Cart},
			{Pattern: "/cart", Target: registry.Cart},
			{Pattern: "/cart/*", Target: registry.Cart},

			{Pattern: "/orders", Target: registry.Order},
			{Pattern: "/orders/*", Target: registry.Order},
		},
	}
}

// LoadTable parses a YAML route table and validates it.
func LoadTable(r io.Reader) (Table, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	for i := range t.Routes {
		for j, m := range t.Routes[i].Methods {
			t.Routes[i].Methods[j] = strings.ToUpper(strings.TrimSpace(m))
		}
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

var knownMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true, http.MethodOptions: true,
}

func (t Table) Validate() error {
	if t.Prefix != "" && (!strings.HasPrefix(t.Prefix, "/") || strings.HasSuffix(t.Prefix, "/")) {
		return fmt.Errorf("%w: prefix %q must start and not end with /", ErrInvalidTable, t.Prefix)
	}
	if len(t.Routes) == 0 {
		return fmt.Errorf("%w: no routes", ErrInvalidTable)
	}
	for i, r := range t.Routes {
		if !strings.HasPrefix(r.Pattern, "/") {
			return fmt.Errorf("%w: route %d: pattern %q must start with /", ErrInvalidTable, i, r.Pattern)
		}
		segs := splitPath(r.Pattern)
		for k, s := range segs {
			if s == "*" && k != len(segs)-1 {
				return fmt.Errorf("%w: route %d: * only allowed as last segment", ErrInvalidTable, i)
			}
			if s == ":" {
				return fmt.Errorf("%w: route %d: unnamed parameter", ErrInvalidTable, i)
			}
		}
		if r.Target == "" {
			return fmt.Errorf("%w: route %d (%s): missing target", ErrInvalidTable, i, r.Pattern)
		}
		if r.Public && len(r.RequiredRoles) > 0 {
			return fmt.Errorf("%w: route %d (%s): public route cannot require roles", ErrInvalidTable, i, r.Pattern)
		}
		for _, m := range r.Methods {
			if !knownMethods[m] {
				return fmt.Errorf("%w: route %d (%s): unknown method %q", ErrInvalidTable, i, r.Pattern, m)
			}
		}
	}
	return nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
