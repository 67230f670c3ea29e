package gen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listCategories = `-- name: ListCategories :many
SELECT id, name, created_at FROM categories ORDER BY id
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name) VALUES ($1)
RETURNING id, name, created_at
`

func (q *Queries) CreateCategory(ctx context.Context, name string) (Category, error) {
	row := q.db.QueryRow(ctx, createCategory, name)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories SET name = $2 WHERE id = $1
RETURNING id, name, created_at
`

type UpdateCategoryParams struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const deleteCategory = `-- name: DeleteCategory :execrows
DELETE FROM categories WHERE id = $1
`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listSpecialOffers = `-- name: ListSpecialOffers :many
SELECT id, title, description, type, discount_value, is_active, created_at
FROM special_offers
WHERE ($1::boolean = FALSE OR is_active)
ORDER BY id
`

func (q *Queries) ListSpecialOffers(ctx context.Context, onlyActive bool) ([]SpecialOffer, error) {
	rows, err := q.db.Query(ctx, listSpecialOffers, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SpecialOffer{}
	for rows.Next() {
		var i SpecialOffer
		if err := rows.Scan(&i.ID, &i.Title, &i.Description, &i.Type, &i.DiscountValue, &i.IsActive, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSpecialOffer = `-- name: CreateSpecialOffer :one
INSERT INTO special_offers (title, description, type, discount_value, is_active)
VALUES ($1, $2, $3, $4, TRUE)
RETURNING id, title, description, type, discount_value, is_active, created_at
`

type CreateSpecialOfferParams struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	DiscountValue string `json:"discount_value"`
}

func (q *Queries) CreateSpecialOffer(ctx context.Context, arg CreateSpecialOfferParams) (SpecialOffer, error) {
	row := q.db.QueryRow(ctx, createSpecialOffer, arg.Title, arg.Description, arg.Type, arg.DiscountValue)
	var i SpecialOffer
	err := row.Scan(&i.ID, &i.Title, &i.Description, &i.Type, &i.DiscountValue, &i.IsActive, &i.CreatedAt)
	return i, err
}

const setSpecialOfferActive = `-- name: SetSpecialOfferActive :execrows
UPDATE special_offers SET is_active = $2 WHERE id = $1
`

type SetActiveParams struct {
	ID       int64 `json:"id"`
	IsActive bool  `json:"is_active"`
}

func (q *Queries) SetSpecialOfferActive(ctx context.Context, arg SetActiveParams) (int64, error) {
	result, err := q.db.Exec(ctx, setSpecialOfferActive, arg.ID, arg.IsActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteSpecialOffer = `-- name: DeleteSpecialOffer :execrows
DELETE FROM special_offers WHERE id = $1
`

func (q *Queries) DeleteSpecialOffer(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteSpecialOffer, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const productColumns = `p.id, p.name, p.description, p.price, p.cost_price, p.category_id, p.offer_id,
       p.image_url, p.promo_tag, p.is_active, p.created_at,
       COALESCE(c.name, '') AS category_name,
       o.id AS offer_ref_id, o.title AS offer_title, o.type AS offer_type,
       o.discount_value AS offer_discount_value, o.is_active AS offer_is_active`

const listProducts = `-- name: ListProducts :many
SELECT ` + productColumns + `
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN special_offers o ON o.id = p.offer_id
WHERE ($1::boolean = FALSE OR p.is_active)
ORDER BY p.id
`

// ProductRow is a product joined with its category name and linked offer.
type ProductRow struct {
	ID                 int64              `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	Price              pgtype.Numeric     `json:"price"`
	CostPrice          pgtype.Numeric     `json:"cost_price"`
	CategoryID         pgtype.Int8        `json:"category_id"`
	OfferID            pgtype.Int8        `json:"offer_id"`
	ImageUrl           string             `json:"image_url"`
	PromoTag           pgtype.Text        `json:"promo_tag"`
	IsActive           bool               `json:"is_active"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
	CategoryName       string             `json:"category_name"`
	OfferRefID         pgtype.Int8        `json:"offer_ref_id"`
	OfferTitle         pgtype.Text        `json:"offer_title"`
	OfferType          pgtype.Text        `json:"offer_type"`
	OfferDiscountValue pgtype.Text        `json:"offer_discount_value"`
	OfferIsActive      pgtype.Bool        `json:"offer_is_active"`
}

func scanProductRow(row interface{ Scan(...any) error }, i *ProductRow) error {
	return row.Scan(
		&i.ID, &i.Name, &i.Description, &i.Price, &i.CostPrice, &i.CategoryID, &i.OfferID,
		&i.ImageUrl, &i.PromoTag, &i.IsActive, &i.CreatedAt,
		&i.CategoryName,
		&i.OfferRefID, &i.OfferTitle, &i.OfferType, &i.OfferDiscountValue, &i.OfferIsActive,
	)
}

func (q *Queries) ListProducts(ctx context.Context, onlyActive bool) ([]ProductRow, error) {
	rows, err := q.db.Query(ctx, listProducts, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ProductRow{}
	for rows.Next() {
		var i ProductRow
		if err := scanProductRow(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getProduct = `-- name: GetProduct :one
SELECT ` + productColumns + `
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN special_offers o ON o.id = p.offer_id
WHERE p.id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id int64) (ProductRow, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	var i ProductRow
	err := scanProductRow(row, &i)
	return i, err
}

const createProduct = `-- name: CreateProduct :one
INSERT INTO products (name, description, price, cost_price, category_id, offer_id, image_url, promo_tag, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, name, description, price, cost_price, category_id, offer_id, image_url, promo_tag, is_active, created_at
`

type ProductParams struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       pgtype.Numeric `json:"price"`
	CostPrice   pgtype.Numeric `json:"cost_price"`
	CategoryID  pgtype.Int8    `json:"category_id"`
	OfferID     pgtype.Int8    `json:"offer_id"`
	ImageUrl    string         `json:"image_url"`
	PromoTag    pgtype.Text    `json:"promo_tag"`
	IsActive    bool           `json:"is_active"`
}

func scanProduct(row interface{ Scan(...any) error }, i *Product) error {
	return row.Scan(&i.ID, &i.Name, &i.Description, &i.Price, &i.CostPrice, &i.CategoryID, &i.OfferID,
		&i.ImageUrl, &i.PromoTag, &i.IsActive, &i.CreatedAt)
}

// CreateProduct ignores arg.ID.
func (q *Queries) CreateProduct(ctx context.Context, arg ProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct,
		arg.Name, arg.Description, arg.Price, arg.CostPrice, arg.CategoryID,
		arg.OfferID, arg.ImageUrl, arg.PromoTag, arg.IsActive,
	)
	var i Product
	err := scanProduct(row, &i)
	return i, err
}

const updateProduct = `-- name: UpdateProduct :one
UPDATE products
SET name = $2, description = $3, price = $4, cost_price = $5, category_id = $6,
    offer_id = $7, image_url = $8, promo_tag = $9, is_active = $10
WHERE id = $1
RETURNING id, name, description, price, cost_price, category_id, offer_id, image_url, promo_tag, is_active, created_at
`

func (q *Queries) UpdateProduct(ctx context.Context, arg ProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProduct,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.CostPrice, arg.CategoryID,
		arg.OfferID, arg.ImageUrl, arg.PromoTag, arg.IsActive,
	)
	var i Product
	err := scanProduct(row, &i)
	return i, err
}

const setProductActive = `-- name: SetProductActive :execrows
UPDATE products SET is_active = $2 WHERE id = $1
`

func (q *Queries) SetProductActive(ctx context.Context, arg SetActiveParams) (int64, error) {
	result, err := q.db.Exec(ctx, setProductActive, arg.ID, arg.IsActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteProduct = `-- name: DeleteProduct :execrows
DELETE FROM products WHERE id = $1
`

func (q *Queries) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteProduct, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteProductModifiers = `-- name: DeleteProductModifiers :exec
DELETE FROM product_modifiers WHERE product_id = $1
`

func (q *Queries) DeleteProductModifiers(ctx context.Context, productID int64) error {
	_, err := q.db.Exec(ctx, deleteProductModifiers, productID)
	return err
}

const createProductModifier = `-- name: CreateProductModifier :exec
INSERT INTO product_modifiers (product_id, group_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (q *Queries) CreateProductModifier(ctx context.Context, arg ProductModifier) error {
	_, err := q.db.Exec(ctx, createProductModifier, arg.ProductID, arg.GroupID)
	return err
}

const listProductModifiers = `-- name: ListProductModifiers :many
SELECT pm.product_id, pm.group_id
FROM product_modifiers pm
WHERE cardinality($1::bigint[]) = 0 OR pm.product_id = ANY($1::bigint[])
ORDER BY pm.product_id, pm.group_id
`

func (q *Queries) ListProductModifiers(ctx context.Context, productIDs []int64) ([]ProductModifier, error) {
	rows, err := q.db.Query(ctx, listProductModifiers, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ProductModifier{}
	for rows.Next() {
		var i ProductModifier
		if err := rows.Scan(&i.ProductID, &i.GroupID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteGroupProductModifiers = `-- name: DeleteGroupProductModifiers :exec
DELETE FROM product_modifiers WHERE group_id = $1
`

func (q *Queries) DeleteGroupProductModifiers(ctx context.Context, groupID int64) error {
	_, err := q.db.Exec(ctx, deleteGroupProductModifiers, groupID)
	return err
}

const listModifierGroups = `-- name: ListModifierGroups :many
SELECT id, name, min_selection, max_selection, created_at FROM modifier_groups ORDER BY id
`

func (q *Queries) ListModifierGroups(ctx context.Context) ([]ModifierGroup, error) {
	rows, err := q.db.Query(ctx, listModifierGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ModifierGroup{}
	for rows.Next() {
		var i ModifierGroup
		if err := rows.Scan(&i.ID, &i.Name, &i.MinSelection, &i.MaxSelection, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createModifierGroup = `-- name: CreateModifierGroup :one
INSERT INTO modifier_groups (name, min_selection, max_selection) VALUES ($1, $2, $3)
RETURNING id, name, min_selection, max_selection, created_at
`

type ModifierGroupParams struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	MinSelection int32  `json:"min_selection"`
	MaxSelection int32  `json:"max_selection"`
}

// CreateModifierGroup ignores arg.ID.
func (q *Queries) CreateModifierGroup(ctx context.Context, arg ModifierGroupParams) (ModifierGroup, error) {
	row := q.db.QueryRow(ctx, createModifierGroup, arg.Name, arg.MinSelection, arg.MaxSelection)
	var i ModifierGroup
	err := row.Scan(&i.ID, &i.Name, &i.MinSelection, &i.MaxSelection, &i.CreatedAt)
	return i, err
}

const updateModifierGroup = `-- name: UpdateModifierGroup :one
UPDATE modifier_groups SET name = $2, min_selection = $3, max_selection = $4 WHERE id = $1
RETURNING id, name, min_selection, max_selection, created_at
`

func (q *Queries) UpdateModifierGroup(ctx context.Context, arg ModifierGroupParams) (ModifierGroup, error) {
	row := q.db.QueryRow(ctx, updateModifierGroup, arg.ID, arg.Name, arg.MinSelection, arg.MaxSelection)
	var i ModifierGroup
	err := row.Scan(&i.ID, &i.Name, &i.MinSelection, &i.MaxSelection, &i.CreatedAt)
	return i, err
}

const deleteModifierGroup = `-- name: DeleteModifierGroup :execrows
DELETE FROM modifier_groups WHERE id = $1
`

func (q *Queries) DeleteModifierGroup(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteModifierGroup, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listModifierOptions = `-- name: ListModifierOptions :many
SELECT id, group_id, name, price, is_available
FROM modifier_options
WHERE cardinality($1::bigint[]) = 0 OR group_id = ANY($1::bigint[])
ORDER BY group_id, id
`

func (q *Queries) ListModifierOptions(ctx context.Context, groupIDs []int64) ([]ModifierOption, error) {
	rows, err := q.db.Query(ctx, listModifierOptions, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ModifierOption{}
	for rows.Next() {
		var i ModifierOption
		if err := rows.Scan(&i.ID, &i.GroupID, &i.Name, &i.Price, &i.IsAvailable); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createModifierOption = `-- name: CreateModifierOption :one
INSERT INTO modifier_options (group_id, name, price, is_available) VALUES ($1, $2, $3, $4)
RETURNING id, group_id, name, price, is_available
`

type ModifierOptionParams struct {
	ID          int64          `json:"id"`
	GroupID     int64          `json:"group_id"`
	Name        string         `json:"name"`
	Price       pgtype.Numeric `json:"price"`
	IsAvailable bool           `json:"is_available"`
}

// CreateModifierOption ignores arg.ID.
func (q *Queries) CreateModifierOption(ctx context.Context, arg ModifierOptionParams) (ModifierOption, error) {
	row := q.db.QueryRow(ctx, createModifierOption, arg.GroupID, arg.Name, arg.Price, arg.IsAvailable)
	var i ModifierOption
	err := row.Scan(&i.ID, &i.GroupID, &i.Name, &i.Price, &i.IsAvailable)
	return i, err
}

const updateModifierOption = `-- name: UpdateModifierOption :one
UPDATE modifier_options SET name = $2, price = $3, is_available = $4 WHERE id = $1
RETURNING id, group_id, name, price, is_available
`

// UpdateModifierOption ignores arg.GroupID; options never move between groups.
func (q *Queries) UpdateModifierOption(ctx context.Context, arg ModifierOptionParams) (ModifierOption, error) {
	row := q.db.QueryRow(ctx, updateModifierOption, arg.ID, arg.Name, arg.Price, arg.IsAvailable)
	var i ModifierOption
	err := row.Scan(&i.ID, &i.GroupID, &i.Name, &i.Price, &i.IsAvailable)
	return i, err
}

const deleteModifierOption = `-- name: DeleteModifierOption :execrows
DELETE FROM modifier_options WHERE id = $1
`

func (q *Queries) DeleteModifierOption(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteModifierOption, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteModifierOptionsByGroup = `-- name: DeleteModifierOptionsByGroup :exec
DELETE FROM modifier_options WHERE group_id = $1
`

func (q *Queries) DeleteModifierOptionsByGroup(ctx context.Context, groupID int64) error {
	_, err := q.db.Exec(ctx, deleteModifierOptionsByGroup, groupID)
	return err
}

const listBanners = `-- name: ListBanners :many
SELECT id, title, image_url, is_active, created_at
FROM banners
WHERE ($1::boolean = FALSE OR is_active)
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListBanners(ctx context.Context, onlyActive bool) ([]Banner, error) {
	rows, err := q.db.Query(ctx, listBanners, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Banner{}
	for rows.Next() {
		var i Banner
		if err := rows.Scan(&i.ID, &i.Title, &i.ImageUrl, &i.IsActive, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getBanner = `-- name: GetBanner :one
SELECT id, title, image_url, is_active, created_at FROM banners WHERE id = $1
`

func (q *Queries) GetBanner(ctx context.Context, id int64) (Banner, error) {
	row := q.db.QueryRow(ctx, getBanner, id)
	var i Banner
	err := row.Scan(&i.ID, &i.Title, &i.ImageUrl, &i.IsActive, &i.CreatedAt)
	return i, err
}

const createBanner = `-- name: CreateBanner :one
INSERT INTO banners (title, image_url, is_active) VALUES ($1, $2, TRUE)
RETURNING id, title, image_url, is_active, created_at
`

type CreateBannerParams struct {
	Title    string `json:"title"`
	ImageUrl string `json:"image_url"`
}

func (q *Queries) CreateBanner(ctx context.Context, arg CreateBannerParams) (Banner, error) {
	row := q.db.QueryRow(ctx, createBanner, arg.Title, arg.ImageUrl)
	var i Banner
	err := row.Scan(&i.ID, &i.Title, &i.ImageUrl, &i.IsActive, &i.CreatedAt)
	return i, err
}

const setBannerActive = `-- name: SetBannerActive :execrows
UPDATE banners SET is_active = $2 WHERE id = $1
`

func (q *Queries) SetBannerActive(ctx context.Context, arg SetActiveParams) (int64, error) {
	result, err := q.db.Exec(ctx, setBannerActive, arg.ID, arg.IsActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteBanner = `-- name: DeleteBanner :execrows
DELETE FROM banners WHERE id = $1
`

func (q *Queries) DeleteBanner(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteBanner, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getStoreConfig = `-- name: GetStoreConfig :one
SELECT id, is_open, updated_at FROM store_config WHERE id = 1
`

func (q *Queries) GetStoreConfig(ctx context.Context) (StoreConfig, error) {
	row := q.db.QueryRow(ctx, getStoreConfig)
	var i StoreConfig
	err := row.Scan(&i.ID, &i.IsOpen, &i.UpdatedAt)
	return i, err
}

const setStoreOpen = `-- name: SetStoreOpen :one
INSERT INTO store_config (id, is_open, updated_at) VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET is_open = EXCLUDED.is_open, updated_at = now()
RETURNING id, is_open, updated_at
`

func (q *Queries) SetStoreOpen(ctx context.Context, isOpen bool) (StoreConfig, error) {
	row := q.db.QueryRow(ctx, setStoreOpen, isOpen)
	var i StoreConfig
	err := row.Scan(&i.ID, &i.IsOpen, &i.UpdatedAt)
	return i, err
}
