package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/resilience"
)

func nominatim(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/search" || r.URL.Query().Get("format") != "json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupParsesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := nominatim(t, `[{"lat":"-28.4696","lon":"-65.7852","display_name":"Plaza 25 de Mayo"}]`, &hits)
	mr := miniredis.RunT(t)
	svc := &Service{
		Client:     &resilience.Client{HTTP: srv.Client()},
		BaseURL:    srv.URL,
		CitySuffix: "Catamarca, Argentina",
		Cache:      redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}

	p, err := svc.Lookup(context.Background(), "Sarmiento 500")
	require.NoError(t, err)
	require.InDelta(t, -28.4696, p.Lat, 1e-9)
	require.InDelta(t, -65.7852, p.Lng, 1e-9)

	again, err := svc.Lookup(context.Background(), "sarmiento 500")
	require.NoError(t, err)
	require.Equal(t, p, again)
	require.Equal(t, int32(1), hits.Load())
}

func TestLookupEmpty(t *testing.T) {
	var hits atomic.Int32
	srv := nominatim(t, `[]`, &hits)
	svc := &Service{Client: &resilience.Client{HTTP: srv.Client()}, BaseURL: srv.URL}

	_, err := svc.Lookup(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyAddress)
	require.Zero(t, hits.Load())

	_, err = svc.Lookup(context.Background(), "calle falsa 123")
	require.ErrorIs(t, err, ErrNoResults)
}

func TestSearchHandler(t *testing.T) {
	var hits atomic.Int32
	srv := nominatim(t, `[]`, &hits)
	h := &Handler{Svc: &Service{Client: &resilience.Client{HTTP: srv.Client()}, BaseURL: srv.URL}}

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/geocode?address=nada", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Dirección no encontrada")

	down := &Handler{Svc: &Service{Client: &resilience.Client{HTTP: srv.Client()}, BaseURL: srv.URL + "/broken"}}
	rec = httptest.NewRecorder()
	down.Search(rec, httptest.NewRequest(http.MethodGet, "/geocode?address=x", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
