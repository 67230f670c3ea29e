package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoBody(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		_, _ = w.Write(body)
	})
}

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	h := BodyLimit{Max: 32}.Middleware(echoBody(t))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"name":"Ana"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{"name":"Ana"}`, rr.Body.String())
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	h := BodyLimit{Max: 4}.Middleware(echoBody(t))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("too long body")))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestBodyLimitCapsUnknownLength(t *testing.T) {
	h := BodyLimit{Max: 4}.Middleware(echoBody(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("too long body"))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestBodyLimitExempt(t *testing.T) {
	h := BodyLimit{Max: 4, Exempt: func(r *http.Request) bool {
		return strings.HasPrefix(r.URL.Path, "/api/v1/admin/uploads/")
	}}.Middleware(echoBody(t))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads/products", strings.NewReader("a larger image body")))
	require.Equal(t, http.StatusOK, rr.Code)
}
