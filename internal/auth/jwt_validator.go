package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// scopeClaim marks tokens minted for the back office.
const (
	scopeClaim = "scope"
	adminScope = "admin"
)

// ErrTokenExpired is wrapped by Validate when only the expiry failed, so
// the client can tell a stale session from a forged token.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenValidator checks the claims of admin access tokens after the
// signature has been verified.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
	// MaxTTL rejects tokens whose exp-iat span is longer, which catches
	// tokens minted with a different configuration.
	MaxTTL time.Duration
}

// Validate checks algorithm, subject, scope and the registered claims at now.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	if tok == nil {
		return errors.New("auth: token is nil")
	}
	if algorithm == "" || (v.Algorithm != "" && algorithm != v.Algorithm) {
		return fmt.Errorf("auth: unexpected token algorithm %q", algorithm)
	}
	if _, err := uuid.Parse(tok.Subject()); err != nil {
		return fmt.Errorf("auth: subject is not an admin id: %w", err)
	}
	if tok.Expiration().IsZero() {
		return errors.New("auth: token missing expiry")
	}

	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(v.ClockSkew),
		jwt.WithClaimValue(scopeClaim, adminScope),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if v.MaxTTL > 0 {
		opts = append(opts, jwt.WithMaxDelta(v.MaxTTL, jwt.ExpirationKey, jwt.IssuedAtKey))
	}
	if err := jwt.Validate(tok, opts...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return err
	}
	return nil
}
