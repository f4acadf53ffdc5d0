// Package auth verifies bearer tokens at the gateway.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dwikikusuma/shopmesh/pkg/authjwt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Identity is the verified caller. It lives for one request.
type Identity struct {
	UserID int64
	Email  string
	Roles  []string
}

// HasAnyRole reports whether the identity holds one of roles. An empty
// roles list is always satisfied.
func (id Identity) HasAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, want := range roles {
		for _, have := range id.Roles {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, authjwt.ErrNoSecret
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify checks the Authorization header of r.
func (v *Verifier) Verify(r *http.Request) (Identity, error) {
	token, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Identity{}, err
	}
	claims, err := authjwt.Parse(v.secret, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.ID <= 0 {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return Identity{UserID: claims.ID, Email: claims.Email, Roles: claims.Roles}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: authorization scheme must be Bearer", ErrUnauthenticated)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrUnauthenticated)
	}
	return token, nil
}
