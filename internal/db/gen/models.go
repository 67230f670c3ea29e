package gen

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Category struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type SpecialOffer struct {
	ID            int64              `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Type          string             `json:"type"`
	DiscountValue string             `json:"discount_value"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

type Product struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       pgtype.Numeric     `json:"price"`
	CostPrice   pgtype.Numeric     `json:"cost_price"`
	CategoryID  pgtype.Int8        `json:"category_id"`
	OfferID     pgtype.Int8        `json:"offer_id"`
	ImageUrl    string             `json:"image_url"`
	PromoTag    pgtype.Text        `json:"promo_tag"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type ModifierGroup struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	MinSelection int32              `json:"min_selection"`
	MaxSelection int32              `json:"max_selection"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type ModifierOption struct {
	ID          int64          `json:"id"`
	GroupID     int64          `json:"group_id"`
	Name        string         `json:"name"`
	Price       pgtype.Numeric `json:"price"`
	IsAvailable bool           `json:"is_available"`
}

type ProductModifier struct {
	ProductID int64 `json:"product_id"`
	GroupID   int64 `json:"group_id"`
}

type Banner struct {
	ID        int64              `json:"id"`
	Title     string             `json:"title"`
	ImageUrl  string             `json:"image_url"`
	IsActive  bool               `json:"is_active"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type StoreConfig struct {
	ID        int32              `json:"id"`
	IsOpen    bool               `json:"is_open"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Coupon struct {
	Code         string             `json:"code"`
	DiscountType string             `json:"discount_type"`
	Value        pgtype.Numeric     `json:"value"`
	ExpiresAt    pgtype.Timestamptz `json:"expires_at"`
	UsageLimit   pgtype.Int4        `json:"usage_limit"`
	TimesUsed    int32              `json:"times_used"`
	IsActive     bool               `json:"is_active"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Order struct {
	ID               int64              `json:"id"`
	CustomerName     string             `json:"customer_name"`
	CustomerPhone    string             `json:"customer_phone"`
	CustomerAddress  string             `json:"customer_address"`
	Total            pgtype.Numeric     `json:"total"`
	Discount         pgtype.Numeric     `json:"discount"`
	Status           string             `json:"status"`
	DeliveryMethod   string             `json:"delivery_method"`
	PaymentMethod    string             `json:"payment_method"`
	CouponCode       pgtype.Text        `json:"coupon_code"`
	Latitude         pgtype.Float8      `json:"latitude"`
	Longitude        pgtype.Float8      `json:"longitude"`
	PaymentReference pgtype.Text        `json:"payment_reference"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
}

type OrderItem struct {
	ID          int64          `json:"id"`
	OrderID     int64          `json:"order_id"`
	ProductName string         `json:"product_name"`
	Quantity    int32          `json:"quantity"`
	Price       pgtype.Numeric `json:"price"`
	Options     string         `json:"options"`
	Note        string         `json:"note"`
}

type AdminUser struct {
	ID           pgtype.UUID        `json:"id"`
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	PasswordHash string             `json:"password_hash"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type AdminAuditLog struct {
	ID           int64              `json:"id"`
	ActorKind    string             `json:"actor_kind"`
	AdminID      pgtype.UUID        `json:"admin_id"`
	Action       string             `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   pgtype.Text        `json:"resource_id"`
	Method       string             `json:"method"`
	Path         string             `json:"path"`
	Status       int32              `json:"status"`
	Ip           pgtype.Text        `json:"ip"`
	UserAgent    pgtype.Text        `json:"user_agent"`
	RequestID    pgtype.Text        `json:"request_id"`
	Metadata     []byte             `json:"metadata"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}
