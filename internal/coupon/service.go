// Package coupon validates, redeems and administers discount codes.
package coupon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/db"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

var (
	// ErrNotFound is returned by admin operations on unknown codes.
	ErrNotFound = errors.New("coupon: not found")
	// ErrInvalidInput wraps admin form validation failures.
	ErrInvalidInput = errors.New("coupon: invalid input")
	// ErrDuplicateCode is returned when creating an existing code.
	ErrDuplicateCode = errors.New("coupon: code already exists")
)

// Result is an accepted coupon with the discount it yields.
type Result struct {
	Coupon   Coupon          `json:"coupon"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
}

// Input is the admin coupon form.
type Input struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type" validate:"required,oneof=percent fixed"`
	Value        decimal.Decimal `json:"value"`
	ExpiresAt    *time.Time      `json:"expires_at"`
	UsageLimit   *int32          `json:"usage_limit"`
}

// Service encapsulates coupon rules and settlement.
type Service struct {
	Q      dbgen.Querier
	Now    func() time.Time
	Logger *zerolog.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Validate fetches the coupon fresh and computes its discount on subtotal.
func (s *Service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Result, error) {
	res, err := s.validate(ctx, s.Q, code, subtotal)
	obs.Inc(obs.CouponRedemptionsTotal, "validate", outcome(err))
	return res, err
}

func (s *Service) validate(ctx context.Context, q dbgen.Querier, code string, subtotal decimal.Decimal) (Result, error) {
	code = NormalizeCode(code)
	if code == "" {
		return Result{}, ErrInvalidCoupon
	}
	row, err := q.GetActiveCouponByCode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return Result{}, ErrInvalidCoupon
		}
		return Result{}, fmt.Errorf("get coupon: %w", err)
	}
	now := s.now()
	c := fromRow(row, now)
	if err := c.Validate(now); err != nil {
		return Result{}, err
	}
	return newResult(c, subtotal), nil
}

// Redeem consumes one use of code inside the caller's transaction. The
// conditional update is the only writer of times_used; when it matches no
// row the coupon is re-read to report why.
func (s *Service) Redeem(ctx context.Context, q dbgen.Querier, code string, subtotal decimal.Decimal) (Result, error) {
	code = NormalizeCode(code)
	if code == "" {
		return Result{}, ErrInvalidCoupon
	}
	now := s.now()
	row, err := q.RedeemCoupon(ctx, dbgen.RedeemCouponParams{
		Code: code,
		Now:  pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		if !db.IsNotFound(err) {
			obs.Inc(obs.CouponRedemptionsTotal, "redeem", "error")
			return Result{}, fmt.Errorf("redeem coupon: %w", err)
		}
		_, verr := s.validate(ctx, q, code, subtotal)
		if verr == nil {
			// the guard failed but a re-read passes: a concurrent redemption took the last use
			verr = ErrUsageLimitReached
		}
		obs.Inc(obs.CouponRedemptionsTotal, "redeem", outcome(verr))
		return Result{}, verr
	}
	obs.Inc(obs.CouponRedemptionsTotal, "redeem", "ok")
	return newResult(fromRow(row, now), subtotal), nil
}

// List returns every coupon with its computed status.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	rows, err := s.Q.ListCoupons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	now := s.now()
	out := make([]Coupon, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row, now))
	}
	return out, nil
}

// SnapshotCoupons feeds the admin catalog snapshot.
func (s *Service) SnapshotCoupons(ctx context.Context) (any, error) {
	return s.List(ctx)
}

// Create stores a new active coupon.
func (s *Service) Create(ctx context.Context, in Input) (Coupon, error) {
	params, err := buildParams(in.Code, in)
	if err != nil {
		return Coupon{}, err
	}
	row, err := s.Q.CreateCoupon(ctx, params)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Coupon{}, fmt.Errorf("%s: %w", params.Code, ErrDuplicateCode)
		}
		return Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	return fromRow(row, s.now()), nil
}

// Update rewrites the coupon terms identified by code.
func (s *Service) Update(ctx context.Context, code string, in Input) (Coupon, error) {
	params, err := buildParams(code, in)
	if err != nil {
		return Coupon{}, err
	}
	row, err := s.Q.UpdateCoupon(ctx, params)
	if err != nil {
		if db.IsNotFound(err) {
			return Coupon{}, fmt.Errorf("%s: %w", params.Code, ErrNotFound)
		}
		return Coupon{}, fmt.Errorf("update coupon: %w", err)
	}
	return fromRow(row, s.now()), nil
}

// Delete removes a coupon by code.
func (s *Service) Delete(ctx context.Context, code string) error {
	n, err := s.Q.DeleteCoupon(ctx, NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", code, ErrNotFound)
	}
	return nil
}

func newResult(c Coupon, subtotal decimal.Decimal) Result {
	discount := pricing.CouponDiscount(c.DiscountType, c.Value, subtotal)
	return Result{
		Coupon:   c,
		Discount: discount,
		Message:  "Descuento: -" + money.FormatPrice(discount),
	}
}

func buildParams(code string, in Input) (dbgen.CouponParams, error) {
	code = NormalizeCode(code)
	if code == "" {
		return dbgen.CouponParams{}, fmt.Errorf("code is required: %w", ErrInvalidInput)
	}
	kind := strings.TrimSpace(in.DiscountType)
	if kind != pricing.DiscountPercent && kind != pricing.DiscountFixed {
		return dbgen.CouponParams{}, fmt.Errorf("discount_type must be percent or fixed: %w", ErrInvalidInput)
	}
	if !in.Value.IsPositive() {
		return dbgen.CouponParams{}, fmt.Errorf("value must be positive: %w", ErrInvalidInput)
	}
	if kind == pricing.DiscountPercent && in.Value.GreaterThan(decimal.NewFromInt(100)) {
		return dbgen.CouponParams{}, fmt.Errorf("percent value cannot exceed 100: %w", ErrInvalidInput)
	}
	params := dbgen.CouponParams{
		Code:         code,
		DiscountType: kind,
		Value:        money.ToNumeric(money.Round2(in.Value)),
	}
	if in.ExpiresAt != nil {
		params.ExpiresAt = pgtype.Timestamptz{Time: in.ExpiresAt.UTC(), Valid: true}
	}
	if in.UsageLimit != nil && *in.UsageLimit > 0 {
		params.UsageLimit = pgtype.Int4{Int32: *in.UsageLimit, Valid: true}
	}
	return params, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidCoupon):
		return "invalid"
	case errors.Is(err, ErrExpiredCoupon):
		return "expired"
	case errors.Is(err, ErrUsageLimitReached):
		return "exhausted"
	default:
		return "error"
	}
}

// IsRejection reports whether err is a customer-facing coupon rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidCoupon) || errors.Is(err, ErrExpiredCoupon) || errors.Is(err, ErrUsageLimitReached)
}

// ToAppError maps coupon errors to HTTP errors.
func ToAppError(err error) error {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case IsRejection(err):
		return common.NewAppError("COUPON_REJECTED", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrNotFound):
		return common.NewAppError("NOT_FOUND", "coupon not found", http.StatusNotFound, err)
	case errors.Is(err, ErrDuplicateCode):
		return common.NewAppError("CONFLICT", "coupon code already exists", http.StatusConflict, err)
	case errors.Is(err, ErrInvalidInput):
		return common.NewAppError("INVALID_INPUT", strings.TrimSuffix(err.Error(), ": "+ErrInvalidInput.Error()), http.StatusUnprocessableEntity, err)
	default:
		return err
	}
}
