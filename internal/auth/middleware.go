package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/obs"
)

// TokenParser resolves a bearer token to an admin identifier.
type TokenParser interface {
	ParseAccessToken(token string) (string, error)
}

// Middleware guards the back-office routes.
type Middleware struct {
	Tokens TokenParser
}

// RequireAdmin rejects requests without a valid bearer token and stores the
// admin id on the context for handlers, audit and request logs.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Tokens == nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
			return
		}
		token := bearerToken(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		adminID, err := m.Tokens.ParseAccessToken(token)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		obs.Annotate(r.Context(), "admin_id", adminID)
		next.ServeHTTP(w, r.WithContext(common.WithAdminID(r.Context(), adminID)))
	})
}

// bearerToken reads the Authorization header. EventSource cannot set
// headers, so the order stream may pass the token as ?access_token=.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if strings.HasSuffix(r.URL.Path, "/stream") {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}
