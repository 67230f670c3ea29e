package security

import (
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
)

// BodyLimit caps request payloads. Routes matched by Exempt (image
// uploads) enforce their own, larger limit.
type BodyLimit struct {
	Max    int64
	Exempt func(*http.Request) bool
}

// Middleware rejects declared oversize bodies with 413 up front and wraps
// the rest in http.MaxBytesReader so decoding fails once the cap is hit.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody || (b.Exempt != nil && b.Exempt(r)) {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", map[string]any{"max_bytes": b.Max})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
