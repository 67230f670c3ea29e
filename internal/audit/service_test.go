package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/obs"
)

type stubStore struct {
	inserts []dbgen.InsertAuditLogParams
	rows    []dbgen.AdminAuditLog

	receivedLimit  int32
	receivedOffset int32
}

func (s *stubStore) InsertAuditLog(_ context.Context, arg dbgen.InsertAuditLogParams) error {
	s.inserts = append(s.inserts, arg)
	return nil
}

func (s *stubStore) ListAuditLogs(_ context.Context, arg dbgen.ListAuditLogsParams) ([]dbgen.AdminAuditLog, error) {
	s.receivedLimit = arg.Limit
	s.receivedOffset = arg.Offset
	return s.rows, nil
}

func (s *stubStore) CountAuditLogs(context.Context) (int64, error) {
	return int64(len(s.rows)), nil
}

func TestServiceRecord(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true, SamplingRate: 1}
	adminID := uuid.NewString()

	req := httptest.NewRequest(http.MethodPatch, "https://api.test/api/v1/admin/coupons/PROMO10?src=panel", nil)
	req.Header.Set("User-Agent", "tester")
	req.Header.Set("X-Request-ID", "req-123")
	req.RemoteAddr = "10.0.0.2:54321"
	ctx := obs.WithRoutePattern(req.Context(), "/api/v1/admin/coupons/{code}")
	req = req.WithContext(ctx)

	err := svc.Record(req.Context(), Actor{Kind: ActorKindAdmin, AdminID: adminID}, "", "", "PROMO10", req, http.StatusOK, nil)
	require.NoError(t, err)
	require.Len(t, store.inserts, 1)

	got := store.inserts[0]
	require.Equal(t, string(ActorKindAdmin), got.ActorKind)
	require.True(t, got.AdminID.Valid)
	require.Equal(t, adminID, uuid.UUID(got.AdminID.Bytes).String())
	require.Equal(t, "PATCH /api/v1/admin/coupons/{code}", got.Action)
	require.Equal(t, "coupons", got.ResourceType)
	require.Equal(t, "PROMO10", got.ResourceID.String)
	require.Equal(t, "10.0.0.2", got.Ip.String)
	require.Equal(t, "req-123", got.RequestID.String)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(got.Metadata, &meta))
	require.Equal(t, "src=panel", meta["query"])
}

func TestServiceRecordDisabled(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: false}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, svc.Record(req.Context(), Actor{}, "", "", "", req, http.StatusOK, nil))
	require.Empty(t, store.inserts)
}

func TestBuildResource(t *testing.T) {
	cases := map[string]string{
		"/api/v1/admin/orders/{id}/status":   "orders.status",
		"/api/v1/admin/products":             "products",
		"/api/v1/admin/groups/{id}/options":  "groups.options",
		"":                                   "unknown",
	}
	for route, want := range cases {
		require.Equal(t, want, buildResource("", route), route)
	}
	require.Equal(t, "store", buildResource("store", "/api/v1/admin/store/status"))
}

func TestMutationsSkipsReads(t *testing.T) {
	store := &stubStore{}
	rec := HTTPRecorder{Service: &Service{Store: store, Enabled: true}}
	h := rec.Mutations(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	get := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	h.ServeHTTP(httptest.NewRecorder(), get)
	require.Empty(t, store.inserts)

	post := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", nil)
	post = post.WithContext(common.WithAdminID(post.Context(), uuid.NewString()))
	h.ServeHTTP(httptest.NewRecorder(), post)
	require.Len(t, store.inserts, 1)
	require.Equal(t, int32(http.StatusCreated), store.inserts[0].Status)
	require.Equal(t, string(ActorKindAdmin), store.inserts[0].ActorKind)
}

func TestMiddlewareRecordsLoginAttempts(t *testing.T) {
	store := &stubStore{}
	rec := HTTPRecorder{Service: &Service{Store: store, Enabled: true}}
	status := http.StatusUnauthorized
	h := rec.Middleware(HTTPConfig{Action: "admin.login", ResourceType: "auth", MetadataFunc: Outcome})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", nil))
	status = http.StatusOK
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", nil))

	require.Len(t, store.inserts, 2)
	first := store.inserts[0]
	require.Equal(t, "admin.login", first.Action)
	require.Equal(t, "auth", first.ResourceType)
	require.Equal(t, string(ActorKindAnonymous), first.ActorKind)
	require.Equal(t, int32(http.StatusUnauthorized), first.Status)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(first.Metadata, &meta))
	require.Equal(t, "failure", meta["outcome"])
	require.NoError(t, json.Unmarshal(store.inserts[1].Metadata, &meta))
	require.Equal(t, "success", meta["outcome"])
}
