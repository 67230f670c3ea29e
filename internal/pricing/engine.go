package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/money"
)

// Offer types understood by LineSavings.
const (
	OfferTwoForOne     = "2x1"
	OfferHalfOff       = "50off"
	OfferSecondUnit70  = "70off_2nd"
	DiscountPercent    = "percent"
	DiscountFixed      = "fixed"
	DeliveryMethodHome = "delivery"
)

var (
	half    = decimal.RequireFromString("0.5")
	seventy = decimal.RequireFromString("0.7")
	hundred = decimal.NewFromInt(100)
)

// Offer is the promotional rule linked to a product.
type Offer struct {
	ID                 int64  `json:"id"`
	Type               string `json:"type"`
	DiscountValueLabel string `json:"discount_value"`
	IsActive           bool   `json:"is_active"`
}

// Option is a chosen modifier carried by a line.
type Option struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Line describes a cart line used for pricing calculation.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Options   []Option        `json:"options"`
	Note      string          `json:"note"`
	Offer     *Offer          `json:"offer,omitempty"`
}

// CouponTerms is the part of a coupon that affects the total.
type CouponTerms struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
}

// Input aggregates everything Compute needs.
type Input struct {
	Lines          []Line
	Coupon         *CouponTerms
	DeliveryMethod string
	DeliveryFee    decimal.Decimal
}

// LineQuote is the computed view of a single line.
type LineQuote struct {
	Line
	LineTotal decimal.Decimal `json:"line_total"`
	Savings   decimal.Decimal `json:"savings"`
}

// Quote aggregates computed pricing components.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	PromoSavings   decimal.Decimal `json:"promo_savings"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	Total          decimal.Decimal `json:"total"`
	Lines          []LineQuote     `json:"lines"`
}

// Discount is the amount stored on the order: coupon plus promo savings.
func (q Quote) Discount() decimal.Decimal {
	return money.Round2(q.CouponDiscount.Add(q.PromoSavings))
}

// LineSavings returns the promotional savings for qty units at unitPrice.
// Inactive or unknown offers save nothing.
func LineSavings(offer *Offer, qty int, unitPrice decimal.Decimal) decimal.Decimal {
	if offer == nil || !offer.IsActive {
		return decimal.Zero
	}
	if qty < 0 {
		qty = 0
	}
	unitPrice = money.Max0(unitPrice)
	pairs := decimal.NewFromInt(int64(qty / 2))
	switch strings.TrimSpace(offer.Type) {
	case OfferTwoForOne:
		return money.Round2(pairs.Mul(unitPrice))
	case OfferHalfOff:
		return money.Round2(decimal.NewFromInt(int64(qty)).Mul(unitPrice).Mul(half))
	case OfferSecondUnit70:
		return money.Round2(pairs.Mul(unitPrice).Mul(seventy))
	default:
		return decimal.Zero
	}
}

// UnitPrice adds the option surcharges to the base price.
func UnitPrice(base decimal.Decimal, options []Option) decimal.Decimal {
	total := base
	for _, opt := range options {
		total = total.Add(opt.Price)
	}
	return money.Round2(total)
}

// CouponDiscount computes the coupon amount. Fixed coupons are not capped
// at the subtotal; Compute clamps the final total instead.
func CouponDiscount(discountType string, value, subtotal decimal.Decimal) decimal.Decimal {
	switch strings.ToLower(strings.TrimSpace(discountType)) {
	case DiscountPercent:
		return money.Round2(subtotal.Mul(value).Div(hundred))
	case DiscountFixed:
		return money.Round2(value)
	default:
		return decimal.Zero
	}
}

// Compute calculates cart totals given the provided inputs.
func Compute(in Input) Quote {
	subtotal := decimal.Zero
	savings := decimal.Zero
	lines := make([]LineQuote, 0, len(in.Lines))
	for _, ln := range in.Lines {
		qty := ln.Quantity
		if qty < 0 {
			qty = 0
		}
		lineTotal := ln.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		lineSavings := LineSavings(ln.Offer, qty, ln.UnitPrice)
		subtotal = subtotal.Add(lineTotal)
		savings = savings.Add(lineSavings)
		lines = append(lines, LineQuote{Line: ln, LineTotal: money.Round2(lineTotal), Savings: lineSavings})
	}
	subtotal = money.Round2(subtotal)
	savings = money.Round2(savings)

	coupon := decimal.Zero
	if in.Coupon != nil {
		coupon = CouponDiscount(in.Coupon.DiscountType, in.Coupon.Value, subtotal)
	}
	fee := decimal.Zero
	if in.DeliveryMethod == DeliveryMethodHome {
		fee = money.Round2(money.Max0(in.DeliveryFee))
	}
	total := money.Max0(subtotal.Sub(coupon).Sub(savings).Add(fee))
	return Quote{
		Subtotal:       subtotal,
		PromoSavings:   savings,
		CouponDiscount: coupon,
		DeliveryFee:    fee,
		Total:          money.Round2(total),
		Lines:          lines,
	}
}
