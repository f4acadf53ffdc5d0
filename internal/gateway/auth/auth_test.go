package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/shopmesh/pkg/authjwt"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"", "", false},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if !tt.ok {
			assert.True(t, errors.Is(err, ErrUnauthenticated), "header %q", tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestVerify(t *testing.T) {
	iss, err := authjwt.NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	v, err := NewVerifier("s3cret")
	require.NoError(t, err)

	tok, err := iss.Issue(7, "a@b.c", []string{"USER"})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	id, err := v.Verify(r)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 7, Email: "a@b.c", Roles: []string{"USER"}}, id)

	other, err := NewVerifier("different")
	require.NoError(t, err)
	_, err = other.Verify(r)
	assert.True(t, errors.Is(err, ErrUnauthenticated))

	r.Header.Del("Authorization")
	_, err = v.Verify(r)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
}

func TestHasAnyRole(t *testing.T) {
	id := Identity{Roles: []string{"USER", "admin"}}
	assert.True(t, id.HasAnyRole(nil))
	assert.True(t, id.HasAnyRole([]string{"ADMIN"}))
	assert.False(t, id.HasAnyRole([]string{"SUPPORT"}))
	assert.False(t, Identity{}.HasAnyRole([]string{"USER"}))
}
