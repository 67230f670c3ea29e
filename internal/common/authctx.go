package common

import (
	"context"
	"net/http"
)

type adminIDKey struct{}

// ErrUnauthenticated is returned when a back-office handler runs without an
// authenticated admin on the context.
var ErrUnauthenticated = NewAppError("UNAUTHORIZED", "missing or invalid token", http.StatusUnauthorized, nil)

// WithAdminID marks ctx as belonging to the given admin.
func WithAdminID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, adminIDKey{}, id)
}

// AdminID returns the admin set by WithAdminID.
func AdminID(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(adminIDKey{}).(string)
	return id, id != ""
}

// RequireAdminID is AdminID for handlers that cannot proceed anonymously.
func RequireAdminID(ctx context.Context) (string, error) {
	id, ok := AdminID(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return id, nil
}
