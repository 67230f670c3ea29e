package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	db "github.com/noah-isme/backend-resto/internal/db/gen"
)

type fakeAdmins struct {
	byEmail map[string]db.AdminUser
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{byEmail: map[string]db.AdminUser{}}
}

func (f *fakeAdmins) GetAdminUserByEmail(_ context.Context, email string) (db.AdminUser, error) {
	row, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return db.AdminUser{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeAdmins) GetAdminUserByID(_ context.Context, id pgtype.UUID) (db.AdminUser, error) {
	for _, row := range f.byEmail {
		if row.ID == id {
			return row, nil
		}
	}
	return db.AdminUser{}, pgx.ErrNoRows
}

func (f *fakeAdmins) CreateAdminUser(_ context.Context, arg db.CreateAdminUserParams) (db.AdminUser, error) {
	row, ok := f.byEmail[arg.Email]
	if !ok {
		row = db.AdminUser{
			ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Email:     arg.Email,
			CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
		}
	}
	row.Name = arg.Name
	row.PasswordHash = arg.PasswordHash
	f.byEmail[arg.Email] = row
	return row, nil
}

func newTestService(t *testing.T) (*Service, *fakeAdmins) {
	t.Helper()
	store := newFakeAdmins()
	svc, err := NewService(Config{Queries: store, Secret: "test-secret", AccessTokenTTL: time.Hour})
	require.NoError(t, err)
	_, err = svc.CreateAdmin(context.Background(), "Owner@Burger.test", "Owner", "hamburguesa")
	require.NoError(t, err)
	return svc, store
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Login(context.Background(), " owner@burger.test ", "hamburguesa")
	require.NoError(t, err)
	require.Equal(t, "owner@burger.test", result.Admin.Email)
	require.NotEmpty(t, result.AccessToken)

	adminID, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.Admin.ID, adminID)

	me, err := svc.Me(context.Background(), adminID)
	require.NoError(t, err)
	require.Equal(t, "Owner", me.Name)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "owner@burger.test", "wrong-password")
	requireAppCode(t, err, "INVALID_CREDENTIALS")

	_, err = svc.Login(context.Background(), "nobody@burger.test", "hamburguesa")
	requireAppCode(t, err, "INVALID_CREDENTIALS")
}

func TestCreateAdminRejectsShortPassword(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateAdmin(context.Background(), "cook@burger.test", "Cook", "short")
	requireAppCode(t, err, "VALIDATION_ERROR")
}

func TestParseAccessTokenExpired(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Login(context.Background(), "owner@burger.test", "hamburguesa")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = svc.ParseAccessToken(result.AccessToken)
	requireAppCode(t, err, "TOKEN_EXPIRED")
}

func TestParseAccessTokenRejectsForeignSecret(t *testing.T) {
	svc, _ := newTestService(t)
	other, err := NewService(Config{Queries: newFakeAdmins(), Secret: "another-secret"})
	require.NoError(t, err)
	_, err = other.CreateAdmin(context.Background(), "owner@burger.test", "Owner", "hamburguesa")
	require.NoError(t, err)
	result, err := other.Login(context.Background(), "owner@burger.test", "hamburguesa")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(result.AccessToken)
	requireAppCode(t, err, "UNAUTHORIZED")
}

func TestRequireAdminMiddleware(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Login(context.Background(), "owner@burger.test", "hamburguesa")
	require.NoError(t, err)

	var seen string
	h := Middleware{Tokens: svc}.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.AdminID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+result.AccessToken)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, result.Admin.ID, seen)

	stream := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/stream?access_token="+result.AccessToken, nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, stream)
	require.Equal(t, http.StatusNoContent, rr.Code)

	query := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?access_token="+result.AccessToken, nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, query)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginHandler(t *testing.T) {
	svc, _ := newTestService(t)
	h := Handler{Service: svc}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"email":"owner@burger.test","password":"hamburguesa"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	var payload struct {
		Data LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Data.AccessToken)

	bad := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"email":"owner@burger.test","password":"nope"}`))
	rr = httptest.NewRecorder()
	h.Login(rr, bad)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func requireAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*common.AppError)
	require.True(t, ok, "expected AppError, got %T", err)
	require.Equal(t, code, appErr.Code)
}
