package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/shopmesh/internal/gateway/auth"
	"github.com/dwikikusuma/shopmesh/internal/gateway/proxy"
	"github.com/dwikikusuma/shopmesh/internal/gateway/registry"
	"github.com/dwikikusuma/shopmesh/internal/gateway/routing"
	"github.com/dwikikusuma/shopmesh/pkg/authjwt"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
	"github.com/dwikikusuma/shopmesh/pkg/logger"
)

const secret = "test-secret"

type seen struct {
	calls  atomic.Int32
	path   atomic.Value
	userID atomic.Value
	reqID  atomic.Value
	fwdFor atomic.Value
}

func upstream(t *testing.T, s *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.path.Store(r.URL.Path)
		s.userID.Store(r.Header.Get(httpx.HeaderUserID))
		s.reqID.Store(r.Header.Get(httpx.HeaderRequestID))
		s.fwdFor.Store(r.Header.Get("X-Forwarded-For"))
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, services map[string]string) http.Handler {
	t.Helper()
	c, err := routing.NewClassifier(routing.DefaultTable())
	require.NoError(t, err)
	v, err := auth.NewVerifier(secret)
	require.NoError(t, err)
	reg, err := registry.New(services)
	require.NoError(t, err)
	return NewRouter(Deps{
		Prefix:     "/api",
		Classifier: c,
		Verifier:   v,
		Forwarder:  proxy.NewForwarder(reg, 200*time.Millisecond, logger.Nop()),
		Log:        logger.Nop(),
	})
}

func token(t *testing.T, id int64, roles ...string) string {
	t.Helper()
	iss, err := authjwt.NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	tok, err := iss.Issue(id, "u@x.io", roles)
	require.NoError(t, err)
	return tok
}

func TestPublicRouteForwardedWithoutToken(t *testing.T) {
	var s seen
	up := upstream(t, &s)
	h := newGateway(t, map[string]string{"catalog": up.URL})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), s.calls.Load())
	assert.Equal(t, "/api/products", s.path.Load())
	assert.Equal(t, "", s.userID.Load())
	assert.NotEmpty(t, s.reqID.Load())
}

func TestProtectedRouteRejectedBeforeForwarding(t *testing.T) {
	var s seen
	up := upstream(t, &s)
	h := newGateway(t, map[string]string{"order": up.URL, "catalog": up.URL})

	for _, tc := range []struct{ method, path, auth string }{
		{http.MethodGet, "/api/orders", ""},
		{http.MethodPost, "/api/products", ""},
		{http.MethodGet, "/api/orders", "Bearer not-a-jwt"},
		{http.MethodGet, "/api/orders", "Token " + token(t, 1)},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.auth != "" {
			req.Header.Set("Authorization", tc.auth)
		}
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc)

		var body httpx.ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
		assert.Equal(t, tc.path, body.Path)
	}
	assert.Equal(t, int32(0), s.calls.Load())
}

func TestInjectedUserIgnoresBodyAndSpoofedHeader(t *testing.T) {
	var s seen
	up := upstream(t, &s)
	h := newGateway(t, map[string]string{"cart": up.URL})

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"userId":999,"productId":7,"quantity":1}`))
	req.Header.Set("Authorization", "Bearer "+token(t, 42, "USER"))
	req.Header.Set(httpx.HeaderUserID, "999")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/cart/items", s.path.Load())
	assert.Equal(t, "42", s.userID.Load())
}

func TestForwardedForCarriesThePeer(t *testing.T) {
	var s seen
	up := upstream(t, &s)
	h := newGateway(t, map[string]string{"catalog": up.URL})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = "192.0.2.1:51000"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	req.Header.Set("X-Real-IP", "9.9.9.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.1.1.1, 192.0.2.1", s.fwdFor.Load())
}

func TestRequiredRoles(t *testing.T) {
	var s seen
	up := upstream(t, &s)
	h := newGateway(t, map[string]string{"identity": up.URL})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, 1, "USER"))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, int32(0), s.calls.Load())

	rec = httptest.NewRecorder()
	req.Header.Set("Authorization", "Bearer "+token(t, 1, "USER", "ADMIN"))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), s.calls.Load())
}

func TestCartAdminRoutes(t *testing.T) {
	var s seen
	up := upstream(t, &s)
	h := newGateway(t, map[string]string{"cart": up.URL})

	tests := []struct {
		method string
		path   string
		roles  []string
		want   int
	}{
		{http.MethodGet, "/api/cart", []string{"USER"}, http.StatusForbidden},
		{http.MethodGet, "/api/cart/7", []string{"USER"}, http.StatusForbidden},
		{http.MethodPut, "/api/cart/7", []string{"USER"}, http.StatusForbidden},
		{http.MethodDelete, "/api/cart/7", []string{"USER"}, http.StatusForbidden},
		{http.MethodGet, "/api/cart/me", []string{"USER"}, http.StatusOK},
		{http.MethodGet, "/api/cart/quote", []string{"USER"}, http.StatusOK},
		{http.MethodPost, "/api/cart", []string{"USER"}, http.StatusOK},
		{http.MethodGet, "/api/cart", []string{"ADMIN"}, http.StatusOK},
		{http.MethodDelete, "/api/cart/7", []string{"ADMIN"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" "+strings.Join(tt.roles, ","), func(t *testing.T) {
			before := s.calls.Load()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			req.Header.Set("Authorization", "Bearer "+token(t, 3, tt.roles...))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, before, s.calls.Load())
			}
		})
	}
}

func TestErrorsMapping(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	h := newGateway(t, map[string]string{"catalog": deadURL})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// cart is routed but not registered
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cart/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, 5))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newGateway(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
