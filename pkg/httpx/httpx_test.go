package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, http.StatusBadRequest, "quantity must be >= 1", "quantity")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 400, body.StatusCode)
	assert.Equal(t, "quantity must be >= 1", body.Message)
	assert.Equal(t, "/cart/items", body.Path)
	assert.Equal(t, []string{"quantity"}, body.Errors)
	assert.False(t, body.Timestamp.IsZero())
}

func TestReadJSON_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		Quantity int `json:"quantity"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":2}`))
	require.NoError(t, ReadJSON(req, &dst))
	assert.Equal(t, 2, dst.Quantity)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":2,"admin":true}`))
	require.Error(t, ReadJSON(req, &dst))
}

func TestUserID(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   int64
		ok     bool
	}{
		{"valid", "42", 42, true},
		{"padded", " 7 ", 7, true},
		{"missing", "", 0, false},
		{"zero", "0", 0, false},
		{"garbage", "abc", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(HeaderUserID, tc.header)
			}
			got, err := UserID(req)
			if !tc.ok {
				require.ErrorIs(t, err, ErrMissingUser)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewRouter_HealthAndNotFound(t *testing.T) {
	r := NewRouter(slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot GET /nope")
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}
