package common

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func TestWriteErrorMapsAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NewAppError("COUPON_EXPIRED", "Vencido", http.StatusUnprocessableEntity, nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "COUPON_EXPIRED", body.Error.Code)
	require.Equal(t, "Vencido", body.Error.Message)
}

func TestWriteErrorHidesPlainErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("connection refused"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "connection refused")
}

type decodeTarget struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

func TestDecodeJSONValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana"}`))
	var dst decodeTarget
	err := DecodeJSON(req, &dst)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	fields := appErr.Details.(map[string]any)["fields"].(map[string]string)
	require.Equal(t, "required", fields["phone"])
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana","phone":"1","x":1}`))
	var dst decodeTarget
	err := DecodeJSON(req, &dst)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_JSON", appErr.Code)
}

func TestIdemReplaysStoredResponse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		Data(w, http.StatusCreated, map[string]int{"order": 17})
	}))

	var bodies []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, "request %d", i)
		bodies = append(bodies, rec.Body.String())
		if i == 1 {
			require.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		}
	}
	require.Equal(t, 1, calls)
	require.Equal(t, bodies[0], bodies[1])
}

func TestIdemInFlightConflictAndServerErrorRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	idem := Idem{R: client, TTL: time.Minute}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Idempotency-Key", "busy")
	require.NoError(t, mr.Set(idemKey(req, "busy"), idemPending))
	rec := httptest.NewRecorder()
	idem.Middleware(http.NotFoundHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "IDEMPOTENCY_IN_PROGRESS")

	failing := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Idempotency-Key", "retry-me")
	failing.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, mr.Exists(idemKey(req, "retry-me")))
}

func TestIdemKeyIsScopedToClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		Data(w, http.StatusCreated, map[string]int{"order": calls})
	}))

	for _, addr := range []string{"203.0.113.5:4000", "198.51.100.7:4000", "203.0.113.5:5000"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.RemoteAddr = addr
		req.Header.Set("Idempotency-Key", "shared")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, addr)
	}
	require.Equal(t, 2, calls, "same key from another client runs again")
}

func TestParsePage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	p := ParsePage(req, 50, 200)
	require.Equal(t, PageParams{Limit: 200, Offset: 20}, p)

	req = httptest.NewRequest(http.MethodGet, "/?limit=-3&offset=abc", nil)
	require.Equal(t, PageParams{Limit: 50}, ParsePage(req, 50, 200))
}

func TestPaginateHasMore(t *testing.T) {
	p := PageParams{Limit: 10, Offset: 10}
	require.True(t, p.Paginate(10, 25).HasMore)
	require.False(t, p.Paginate(5, 15).HasMore)
	require.Equal(t, int64(25), p.Paginate(10, 25).Total)
}

func TestClientIPIgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:5000"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	require.Equal(t, "2001:db8::1", ClientIP(req))

	req.RemoteAddr = "203.0.113.9"
	require.Equal(t, "203.0.113.9", ClientIP(req))
}

func TestHashKeyIsStable(t *testing.T) {
	a := HashKey("geocode", "San Martín 100")
	require.Equal(t, a, HashKey("geocode", "San Martín 100"))
	require.NotEqual(t, a, HashKey("geocode", "San Martín 101"))
	require.True(t, strings.HasPrefix(a, "geocode:"))
	require.Len(t, a, len("geocode:")+64)
}

func TestAsAppError(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), NewAppError("NOT_FOUND", "missing", http.StatusNotFound, nil))
	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	require.Equal(t, "NOT_FOUND", appErr.Code)
	require.Equal(t, "NOT_FOUND: missing", appErr.Error())

	_, ok = AsAppError(errors.New("plain"))
	require.False(t, ok)
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-1", "abc"} {
		_, err := ParseID(raw)
		require.Error(t, err, raw)
	}
}

func TestRequireAdminID(t *testing.T) {
	_, err := RequireAdminID(context.Background())
	app, ok := AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, app.HTTPStatus)

	id, err := RequireAdminID(WithAdminID(context.Background(), "a-1"))
	require.NoError(t, err)
	require.Equal(t, "a-1", id)
}
