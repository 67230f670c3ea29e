package gen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const couponColumns = `code, discount_type, value, expires_at, usage_limit, times_used, is_active, created_at`

func scanCoupon(row interface{ Scan(...any) error }, i *Coupon) error {
	return row.Scan(&i.Code, &i.DiscountType, &i.Value, &i.ExpiresAt, &i.UsageLimit, &i.TimesUsed, &i.IsActive, &i.CreatedAt)
}

const listCoupons = `-- name: ListCoupons :many
SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC, code
`

func (q *Queries) ListCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, listCoupons)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Coupon{}
	for rows.Next() {
		var i Coupon
		if err := scanCoupon(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getActiveCouponByCode = `-- name: GetActiveCouponByCode :one
SELECT ` + couponColumns + ` FROM coupons WHERE code = upper($1) AND is_active
`

func (q *Queries) GetActiveCouponByCode(ctx context.Context, code string) (Coupon, error) {
	row := q.db.QueryRow(ctx, getActiveCouponByCode, code)
	var i Coupon
	err := scanCoupon(row, &i)
	return i, err
}

const createCoupon = `-- name: CreateCoupon :one
INSERT INTO coupons (code, discount_type, value, expires_at, usage_limit, is_active)
VALUES (upper($1), $2, $3, $4, $5, TRUE)
RETURNING ` + couponColumns + `
`

type CouponParams struct {
	Code         string             `json:"code"`
	DiscountType string             `json:"discount_type"`
	Value        pgtype.Numeric     `json:"value"`
	ExpiresAt    pgtype.Timestamptz `json:"expires_at"`
	UsageLimit   pgtype.Int4        `json:"usage_limit"`
}

func (q *Queries) CreateCoupon(ctx context.Context, arg CouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, createCoupon, arg.Code, arg.DiscountType, arg.Value, arg.ExpiresAt, arg.UsageLimit)
	var i Coupon
	err := scanCoupon(row, &i)
	return i, err
}

const updateCoupon = `-- name: UpdateCoupon :one
UPDATE coupons
SET discount_type = $2, value = $3, expires_at = $4, usage_limit = $5
WHERE code = upper($1)
RETURNING ` + couponColumns + `
`

func (q *Queries) UpdateCoupon(ctx context.Context, arg CouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, updateCoupon, arg.Code, arg.DiscountType, arg.Value, arg.ExpiresAt, arg.UsageLimit)
	var i Coupon
	err := scanCoupon(row, &i)
	return i, err
}

const deleteCoupon = `-- name: DeleteCoupon :execrows
DELETE FROM coupons WHERE code = upper($1)
`

func (q *Queries) DeleteCoupon(ctx context.Context, code string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCoupon, code)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const redeemCoupon = `-- name: RedeemCoupon :one
UPDATE coupons
SET times_used = times_used + 1
WHERE code = upper($1)
  AND is_active
  AND (expires_at IS NULL OR expires_at >= $2)
  AND (usage_limit IS NULL OR times_used < usage_limit)
RETURNING ` + couponColumns + `
`

type RedeemCouponParams struct {
	Code string             `json:"code"`
	Now  pgtype.Timestamptz `json:"now"`
}

// RedeemCoupon increments times_used only while the coupon is still
// redeemable. It returns pgx.ErrNoRows when the guard fails.
func (q *Queries) RedeemCoupon(ctx context.Context, arg RedeemCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, redeemCoupon, arg.Code, arg.Now)
	var i Coupon
	err := scanCoupon(row, &i)
	return i, err
}
