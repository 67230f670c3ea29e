package gen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
	UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error)
	DeleteCategory(ctx context.Context, id int64) (int64, error)

	ListSpecialOffers(ctx context.Context, onlyActive bool) ([]SpecialOffer, error)
	CreateSpecialOffer(ctx context.Context, arg CreateSpecialOfferParams) (SpecialOffer, error)
	SetSpecialOfferActive(ctx context.Context, arg SetActiveParams) (int64, error)
	DeleteSpecialOffer(ctx context.Context, id int64) (int64, error)

	ListProducts(ctx context.Context, onlyActive bool) ([]ProductRow, error)
	GetProduct(ctx context.Context, id int64) (ProductRow, error)
	CreateProduct(ctx context.Context, arg ProductParams) (Product, error)
	UpdateProduct(ctx context.Context, arg ProductParams) (Product, error)
	SetProductActive(ctx context.Context, arg SetActiveParams) (int64, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
	DeleteProductModifiers(ctx context.Context, productID int64) error
	CreateProductModifier(ctx context.Context, arg ProductModifier) error
	ListProductModifiers(ctx context.Context, productIDs []int64) ([]ProductModifier, error)
	DeleteGroupProductModifiers(ctx context.Context, groupID int64) error

	ListModifierGroups(ctx context.Context) ([]ModifierGroup, error)
	CreateModifierGroup(ctx context.Context, arg ModifierGroupParams) (ModifierGroup, error)
	UpdateModifierGroup(ctx context.Context, arg ModifierGroupParams) (ModifierGroup, error)
	DeleteModifierGroup(ctx context.Context, id int64) (int64, error)
	ListModifierOptions(ctx context.Context, groupIDs []int64) ([]ModifierOption, error)
	CreateModifierOption(ctx context.Context, arg ModifierOptionParams) (ModifierOption, error)
	UpdateModifierOption(ctx context.Context, arg ModifierOptionParams) (ModifierOption, error)
	DeleteModifierOption(ctx context.Context, id int64) (int64, error)
	DeleteModifierOptionsByGroup(ctx context.Context, groupID int64) error

	ListBanners(ctx context.Context, onlyActive bool) ([]Banner, error)
	GetBanner(ctx context.Context, id int64) (Banner, error)
	CreateBanner(ctx context.Context, arg CreateBannerParams) (Banner, error)
	SetBannerActive(ctx context.Context, arg SetActiveParams) (int64, error)
	DeleteBanner(ctx context.Context, id int64) (int64, error)

	GetStoreConfig(ctx context.Context) (StoreConfig, error)
	SetStoreOpen(ctx context.Context, isOpen bool) (StoreConfig, error)

	ListCoupons(ctx context.Context) ([]Coupon, error)
	GetActiveCouponByCode(ctx context.Context, code string) (Coupon, error)
	CreateCoupon(ctx context.Context, arg CouponParams) (Coupon, error)
	UpdateCoupon(ctx context.Context, arg CouponParams) (Coupon, error)
	DeleteCoupon(ctx context.Context, code string) (int64, error)
	RedeemCoupon(ctx context.Context, arg RedeemCouponParams) (Coupon, error)

	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error)
	CountOrders(ctx context.Context, status string) (int64, error)
	ListOrdersInRange(ctx context.Context, arg ListOrdersInRangeParams) ([]Order, error)
	ListRecentOrdersInRange(ctx context.Context, arg ListRecentOrdersInRangeParams) ([]Order, error)
	ListOrderItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error)
	UpdateOrderPaymentReference(ctx context.Context, arg UpdateOrderPaymentReferenceParams) error
	GetDashboardMetrics(ctx context.Context, arg GetDashboardMetricsParams) ([]byte, error)

	GetAdminUserByEmail(ctx context.Context, email string) (AdminUser, error)
	GetAdminUserByID(ctx context.Context, id pgtype.UUID) (AdminUser, error)
	CreateAdminUser(ctx context.Context, arg CreateAdminUserParams) (AdminUser, error)
	InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error
	ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AdminAuditLog, error)
	CountAuditLogs(ctx context.Context) (int64, error)
}

var _ Querier = (*Queries)(nil)
