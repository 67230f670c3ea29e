package coupon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/money"
)

var fixedNow = time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)

type stubCoupons struct {
	dbgen.Querier
	mu   sync.Mutex
	rows map[string]dbgen.Coupon
}

func newStub(rows ...dbgen.Coupon) *stubCoupons {
	s := &stubCoupons{rows: map[string]dbgen.Coupon{}}
	for _, r := range rows {
		s.rows[r.Code] = r
	}
	return s
}

func couponRow(code, kind, value string) dbgen.Coupon {
	return dbgen.Coupon{
		Code:         code,
		DiscountType: kind,
		Value:        money.ToNumeric(decimal.RequireFromString(value)),
		IsActive:     true,
	}
}

func (s *stubCoupons) GetActiveCouponByCode(_ context.Context, code string) (dbgen.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[strings.ToUpper(code)]
	if !ok || !row.IsActive {
		return dbgen.Coupon{}, pgx.ErrNoRows
	}
	return row, nil
}

func (s *stubCoupons) RedeemCoupon(_ context.Context, arg dbgen.RedeemCouponParams) (dbgen.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[arg.Code]
	if !ok || !row.IsActive {
		return dbgen.Coupon{}, pgx.ErrNoRows
	}
	if row.ExpiresAt.Valid && row.ExpiresAt.Time.Before(arg.Now.Time) {
		return dbgen.Coupon{}, pgx.ErrNoRows
	}
	if row.UsageLimit.Valid && row.TimesUsed >= row.UsageLimit.Int32 {
		return dbgen.Coupon{}, pgx.ErrNoRows
	}
	row.TimesUsed++
	s.rows[arg.Code] = row
	return row, nil
}

func (s *stubCoupons) ListCoupons(context.Context) ([]dbgen.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []dbgen.Coupon{}
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubCoupons) CreateCoupon(_ context.Context, arg dbgen.CouponParams) (dbgen.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[arg.Code]; ok {
		return dbgen.Coupon{}, &pgconn.PgError{Code: "23505"}
	}
	row := dbgen.Coupon{Code: arg.Code, DiscountType: arg.DiscountType, Value: arg.Value, ExpiresAt: arg.ExpiresAt, UsageLimit: arg.UsageLimit, IsActive: true}
	s.rows[arg.Code] = row
	return row, nil
}

func (s *stubCoupons) DeleteCoupon(_ context.Context, code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[code]; !ok {
		return 0, nil
	}
	delete(s.rows, code)
	return 1, nil
}

func newService(q dbgen.Querier) *Service {
	return &Service{Q: q, Now: func() time.Time { return fixedNow }}
}

func TestValidateComputesDiscount(t *testing.T) {
	svc := newService(newStub(couponRow("BURGER10", "percent", "10"), couponRow("MENOS500", "fixed", "500")))
	ctx := context.Background()

	res, err := svc.Validate(ctx, " burger10 ", decimal.NewFromInt(12345))
	require.NoError(t, err)
	require.Equal(t, "1234.5", res.Discount.String())
	require.Equal(t, "Descuento: -$1.234,50", res.Message)

	res, err = svc.Validate(ctx, "MENOS500", decimal.NewFromInt(300))
	require.NoError(t, err)
	require.Equal(t, "500", res.Discount.String(), "fixed discounts are not capped")
}

func TestValidateRejections(t *testing.T) {
	expired := couponRow("VIEJO", "fixed", "100")
	expired.ExpiresAt = pgtype.Timestamptz{Time: fixedNow.Add(-time.Minute), Valid: true}
	exhausted := couponRow("AGOTADO", "fixed", "100")
	exhausted.UsageLimit = pgtype.Int4{Int32: 2, Valid: true}
	exhausted.TimesUsed = 2
	disabled := couponRow("OFF", "fixed", "100")
	disabled.IsActive = false
	svc := newService(newStub(expired, exhausted, disabled))

	cases := map[string]error{
		"NOPE":    ErrInvalidCoupon,
		"OFF":     ErrInvalidCoupon,
		"VIEJO":   ErrExpiredCoupon,
		"AGOTADO": ErrUsageLimitReached,
		"":        ErrInvalidCoupon,
	}
	for code, want := range cases {
		_, err := svc.Validate(context.Background(), code, decimal.NewFromInt(1000))
		require.ErrorIs(t, err, want, code)
	}
}

func TestRedeemAtLimitIsRejected(t *testing.T) {
	row := couponRow("UNAVEZ", "fixed", "200")
	row.UsageLimit = pgtype.Int4{Int32: 1, Valid: true}
	stub := newStub(row)
	svc := newService(stub)
	ctx := context.Background()

	_, err := svc.Redeem(ctx, stub, "unavez", decimal.NewFromInt(1000))
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, stub, "unavez", decimal.NewFromInt(1000))
	require.ErrorIs(t, err, ErrUsageLimitReached)
	require.Equal(t, int32(1), stub.rows["UNAVEZ"].TimesUsed)
}

func TestConcurrentRedeemNeverExceedsLimit(t *testing.T) {
	row := couponRow("FLASH", "percent", "20")
	row.UsageLimit = pgtype.Int4{Int32: 5, Valid: true}
	stub := newStub(row)
	svc := newService(stub)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		fail int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(context.Background(), stub, "FLASH", decimal.NewFromInt(1000))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
			} else if errors.Is(err, ErrUsageLimitReached) {
				fail++
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 5, oks)
	require.Equal(t, 15, fail)
	require.Equal(t, int32(5), stub.rows["FLASH"].TimesUsed)
}

func TestCreateNormalisesAndDetectsDuplicates(t *testing.T) {
	stub := newStub()
	svc := newService(stub)
	zero := int32(0)
	c, err := svc.Create(context.Background(), Input{Code: " promo ", DiscountType: "percent", Value: decimal.NewFromInt(15), UsageLimit: &zero})
	require.NoError(t, err)
	require.Equal(t, "PROMO", c.Code)
	require.Nil(t, c.UsageLimit, "non-positive limits mean unlimited")
	require.Equal(t, StatusActive, c.Status)

	_, err = svc.Create(context.Background(), Input{Code: "PROMO", DiscountType: "percent", Value: decimal.NewFromInt(15)})
	require.ErrorIs(t, err, ErrDuplicateCode)

	_, err = svc.Create(context.Background(), Input{Code: "X", DiscountType: "percent", Value: decimal.NewFromInt(150)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatusAt(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	limit := int32(3)
	require.Equal(t, StatusExpired, Coupon{ExpiresAt: &past}.StatusAt(fixedNow))
	require.Equal(t, StatusExhausted, Coupon{UsageLimit: &limit, TimesUsed: 3}.StatusAt(fixedNow))
	require.Equal(t, StatusActive, Coupon{UsageLimit: &limit, TimesUsed: 2}.StatusAt(fixedNow))
}

func TestPreviewHandlerReportsRejection(t *testing.T) {
	h := &Handler{Svc: newService(newStub())}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"NOPE","subtotal":"1000"}`))
	h.Preview(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Cupón inválido")
}
