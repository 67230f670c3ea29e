package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-resto/internal/common"
	db "github.com/noah-isme/backend-resto/internal/db/gen"
)

const (
	defaultAccessTTL = 12 * time.Hour
	defaultIssuer    = "backend-resto"
	defaultAudience  = "resto-admin"
	minPasswordLen   = 8
)

// Queries is the subset of the generated querier used for admin accounts.
type Queries interface {
	GetAdminUserByEmail(ctx context.Context, email string) (db.AdminUser, error)
	GetAdminUserByID(ctx context.Context, id pgtype.UUID) (db.AdminUser, error)
	CreateAdminUser(ctx context.Context, arg db.CreateAdminUserParams) (db.AdminUser, error)
}

// Service authenticates back-office users and issues access tokens.
// There are no refresh tokens: an expired session logs in again.
type Service struct {
	queries   Queries
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries        Queries
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// Admin is the public view of an admin account.
type Admin struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Admin       Admin     `json:"admin"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

var errInvalidCredentials = common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = defaultAudience
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		queries:   cfg.Queries,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
			MaxTTL:    accessTTL + clockSkew,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateAdmin hashes the password and stores the account. An existing
// account with the same email gets its name and password replaced, which
// is how the seeder rotates credentials.
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (Admin, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || !strings.Contains(normalizedEmail, "@") {
		return Admin{}, common.NewAppError("VALIDATION_ERROR", "a valid email is required", http.StatusUnprocessableEntity, nil)
	}
	if len(password) < minPasswordLen {
		return Admin{}, common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("password must be at least %d characters", minPasswordLen), http.StatusUnprocessableEntity, nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = normalizedEmail
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return Admin{}, fmt.Errorf("hash password: %w", err)
	}
	row, err := s.queries.CreateAdminUser(ctx, db.CreateAdminUserParams{
		Email:        normalizedEmail,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		return Admin{}, fmt.Errorf("create admin: %w", err)
	}
	return toAdmin(row), nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || password == "" {
		return LoginResult{}, errInvalidCredentials
	}

	row, err := s.queries.GetAdminUserByEmail(ctx, normalizedEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, errInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load admin: %w", err)
	}

	ok, err := argon2id.ComparePasswordAndHash(password, row.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, errInvalidCredentials
	}

	admin := toAdmin(row)
	if admin.ID == "" {
		return LoginResult{}, errors.New("auth: invalid admin identifier")
	}
	token, expiresAt, err := s.signAccessToken(admin.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{Admin: admin, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Me returns the admin behind the given identifier.
func (s *Service) Me(ctx context.Context, adminID string) (Admin, error) {
	id, err := pgUUIDFromString(adminID)
	if err != nil {
		return Admin{}, common.NewAppError("UNAUTHORIZED", "invalid admin", http.StatusUnauthorized, err)
	}
	row, err := s.queries.GetAdminUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, common.NewAppError("UNAUTHORIZED", "admin no longer exists", http.StatusUnauthorized, err)
		}
		return Admin{}, fmt.Errorf("load admin: %w", err)
	}
	return toAdmin(row), nil
}

// ParseAccessToken validates an access token and returns the subject (admin ID).
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	// Validation runs separately so the injected clock is honoured.
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return "", common.NewAppError("TOKEN_EXPIRED", "session expired, log in again", http.StatusUnauthorized, err)
		}
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return "", errors.New("auth: token must carry exactly one signature")
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	switch alg {
	case "":
		return "", errors.New("auth: token missing algorithm")
	case jwa.NoSignature:
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}

func (s *Service) signAccessToken(adminID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(adminID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		JwtID(uuid.NewString()).
		Claim(scopeClaim, adminScope).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func toAdmin(row db.AdminUser) Admin {
	admin := Admin{ID: uuidString(row.ID), Email: row.Email, Name: row.Name}
	if row.CreatedAt.Valid {
		admin.CreatedAt = row.CreatedAt.Time
	}
	return admin
}

func pgUUIDFromString(value string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(strings.TrimSpace(value)); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}
