package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

func TestHandlerList(t *testing.T) {
	store := &stubStore{rows: []dbgen.AdminAuditLog{{
		ID:           1,
		ActorKind:    "admin",
		Action:       "DELETE /api/v1/admin/banners/{id}",
		ResourceType: "banners",
		Method:       http.MethodDelete,
		Status:       http.StatusNoContent,
		Metadata:     []byte(`{"query":"x=1"}`),
		CreatedAt:    pgtype.Timestamptz{Time: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), Valid: true},
	}}}
	h := Handler{Service: &Service{Store: store}}
	req := httptest.NewRequest(http.MethodGet, "/audit?limit=25&offset=10", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int32(25), store.receivedLimit)
	require.Equal(t, int32(10), store.receivedOffset)

	var payload struct {
		Data Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Len(t, payload.Data.Entries, 1)
	require.Equal(t, "banners", payload.Data.Entries[0].ResourceType)
	require.Equal(t, "2025-05-01T10:00:00Z", payload.Data.Entries[0].CreatedAt)
	require.Equal(t, int64(1), payload.Data.Pagination.Total)
}

func TestHandlerListNotConfigured(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler{}.List(rr, httptest.NewRequest(http.MethodGet, "/audit", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
