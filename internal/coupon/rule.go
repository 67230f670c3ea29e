package coupon

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

var (
	// ErrInvalidCoupon is returned for unknown or disabled codes.
	ErrInvalidCoupon = errors.New("Cupón inválido")
	// ErrExpiredCoupon is returned once expires_at has passed.
	ErrExpiredCoupon = errors.New("Vencido")
	// ErrUsageLimitReached is returned when times_used reached usage_limit.
	ErrUsageLimitReached = errors.New("Agotado")
)

// Status labels shown on the admin coupon list.
const (
	StatusActive    = "ACTIVO"
	StatusExpired   = "VENCIDO"
	StatusExhausted = "AGOTADO"
)

// Coupon is the admin view of a coupon row.
type Coupon struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	UsageLimit   *int32          `json:"usage_limit,omitempty"`
	TimesUsed    int32           `json:"times_used"`
	IsActive     bool            `json:"is_active"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate checks expiry first, then the usage quota.
func (c Coupon) Validate(now time.Time) error {
	if !c.IsActive {
		return ErrInvalidCoupon
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrExpiredCoupon
	}
	if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
		return ErrUsageLimitReached
	}
	return nil
}

// StatusAt derives the admin badge.
func (c Coupon) StatusAt(now time.Time) string {
	switch {
	case c.ExpiresAt != nil && now.After(*c.ExpiresAt):
		return StatusExpired
	case c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit:
		return StatusExhausted
	default:
		return StatusActive
	}
}

// Terms returns the pricing view of the coupon.
func (c Coupon) Terms() *pricing.CouponTerms {
	return &pricing.CouponTerms{Code: c.Code, DiscountType: c.DiscountType, Value: c.Value}
}

// NormalizeCode upper-cases and trims a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func fromRow(row dbgen.Coupon, now time.Time) Coupon {
	c := Coupon{
		Code:         row.Code,
		DiscountType: row.DiscountType,
		Value:        money.FromNumeric(row.Value),
		TimesUsed:    row.TimesUsed,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.Time,
	}
	if row.ExpiresAt.Valid {
		t := row.ExpiresAt.Time
		c.ExpiresAt = &t
	}
	if row.UsageLimit.Valid {
		limit := row.UsageLimit.Int32
		c.UsageLimit = &limit
	}
	c.Status = c.StatusAt(now)
	return c
}
