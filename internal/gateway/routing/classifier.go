package routing

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

var ErrRouteNotFound = errors.New("route not found")

// Match is the classification of one request.
type Match struct {
	Route  Route
	Params map[string]string
	// DownstreamPath is the path the target service expects.
	DownstreamPath string
}

type compiled struct {
	route    Route
	segs     []string
	wildcard bool
	params   int
	literals int
	order    int
}

// Classifier is safe for concurrent use; it is never mutated after
// NewClassifier.
type Classifier struct {
	prefix string
	routes []compiled
}

func NewClassifier(t Table) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{prefix: t.Prefix}
	for i, r := range t.Routes {
		cr := compiled{route: r, segs: splitPath(r.Pattern), order: i}
		for _, s := range cr.segs {
			switch {
			case s == "*":
				cr.wildcard = true
			case strings.HasPrefix(s, ":"):
				cr.params++
			default:
				cr.literals++
			}
		}
		c.routes = append(c.routes, cr)
	}
	// most specific first: exact beats wildcard, literal beats parameter,
	// method-specific beats any-method
	sort.SliceStable(c.routes, func(i, j int) bool {
		a, b := c.routes[i], c.routes[j]
		if a.wildcard != b.wildcard {
			return !a.wildcard
		}
		if a.params != b.params {
			return a.params < b.params
		}
		if a.literals != b.literals {
			return a.literals > b.literals
		}
		am, bm := len(a.route.Methods) > 0, len(b.route.Methods) > 0
		if am != bm {
			return am
		}
		return a.order < b.order
	})
	return c, nil
}

// Classify matches method and path against the table. The path must live
// under the table prefix.
func (c *Classifier) Classify(method, path string) (Match, error) {
	rest, ok := c.trimPrefix(path)
	if !ok {
		return Match{}, fmt.Errorf("%w: %s %s", ErrRouteNotFound, method, path)
	}
	segs := splitPath(rest)
	method = strings.ToUpper(method)

	for _, cr := range c.routes {
		if len(cr.route.Methods) > 0 && !slices.Contains(cr.route.Methods, method) {
			continue
		}
		params, ok := cr.match(segs)
		if !ok {
			continue
		}
		return Match{
			Route:          cr.route,
			Params:         params,
			DownstreamPath: cr.route.UpstreamPrefix + rest,
		}, nil
	}
	return Match{}, fmt.Errorf("%w: %s %s", ErrRouteNotFound, method, path)
}

func (c *Classifier) trimPrefix(path string) (string, bool) {
	if c.prefix == "" {
		return path, true
	}
	if path == c.prefix {
		return "/", true
	}
	if strings.HasPrefix(path, c.prefix+"/") {
		return path[len(c.prefix):], true
	}
	return "", false
}

func (cr compiled) match(segs []string) (map[string]string, bool) {
	if cr.wildcard {
		// "*" needs at least one segment of its own
		if len(segs) < len(cr.segs) {
			return nil, false
		}
	} else if len(segs) != len(cr.segs) {
		return nil, false
	}

	var params map[string]string
	for i, p := range cr.segs {
		switch {
		case p == "*":
			return params, true
		case strings.HasPrefix(p, ":"):
			if params == nil {
				params = make(map[string]string, cr.params)
			}
			params[p[1:]] = segs[i]
		case p != segs[i]:
			return nil, false
		}
	}
	return params, true
}
