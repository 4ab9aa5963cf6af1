package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrShopNotFound     = errors.New("shop not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrNameTaken        = errors.New("name already taken")
)

const uniqueViolation = "23505"

type Repository interface {
	CreateShop(ctx context.Context, shop *Shop) error
	ListShops(ctx context.Context) ([]Shop, error)
	CreateCategory(ctx context.Context, category *ProductCategory) error
	ListCategoriesByShop(ctx context.Context, shopID uuid.UUID) ([]ProductCategory, error)
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Product, error)
	CreateProductInfo(ctx context.Context, info *ProductInfo) error
	InfosByProduct(ctx context.Context, productID uuid.UUID) ([]ProductInfo, error)
	CreateStock(ctx context.Context, stock *ShopStock) error
	SaveAttributes(ctx context.Context, infoID uuid.UUID, userID uuid.UUID, attrs Attributes) error
	AttributesForInfo(ctx context.Context, infoID uuid.UUID) (Attributes, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func newID() (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate id: %w", err)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *postgresRepository) CreateShop(ctx context.Context, shop *Shop) error {
	id, err := newID()
	if err != nil {
		return err
	}
	shop.ID = id

	_, err = r.db.Exec(ctx,
		`INSERT INTO shops (id, name, user_id) VALUES ($1, $2, $3)`,
		shop.ID, shop.Name, shop.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("repository: failed to insert shop: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListShops(ctx context.Context) ([]Shop, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, user_id FROM shops ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query shops: %w", err)
	}
	defer rows.Close()

	shops := make([]Shop, 0)
	for rows.Next() {
		var s Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.UserID); err != nil {
			return nil, fmt.Errorf("repository: failed to scan shop: %w", err)
		}
		shops = append(shops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating shops: %w", err)
	}
	return shops, nil
}

func (r *postgresRepository) CreateCategory(ctx context.Context, category *ProductCategory) error {
	id, err := newID()
	if err != nil {
		return err
	}
	category.ID = id

	_, err = r.db.Exec(ctx,
		`INSERT INTO product_categories (id, name, shop_id, user_id) VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, category.ShopID, category.UserID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert category: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListCategoriesByShop(ctx context.Context, shopID uuid.UUID) ([]ProductCategory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, shop_id, user_id FROM product_categories WHERE shop_id = $1 ORDER BY name`, shopID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories for shop %s: %w", shopID, err)
	}
	defer rows.Close()

	categories := make([]ProductCategory, 0)
	for rows.Next() {
		var c ProductCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.ShopID, &c.UserID); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}
	return categories, nil
}

func (r *postgresRepository) CreateProduct(ctx context.Context, product *Product) error {
	id, err := newID()
	if err != nil {
		return err
	}
	product.ID = id

	_, err = r.db.Exec(ctx,
		`INSERT INTO products (id, name, category_id, is_available, user_id) VALUES ($1, $2, $3, $4, $5)`,
		product.ID, product.Name, product.CategoryID, product.IsAvailable, product.UserID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := r.db.QueryRow(ctx,
		`SELECT id, name, category_id, is_available, user_id FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.CategoryID, &p.IsAvailable, &p.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, category_id, is_available, user_id FROM products WHERE category_id = $1 ORDER BY name`,
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products for category %s: %w", categoryID, err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.IsAvailable, &p.UserID); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}
	return products, nil
}

func (r *postgresRepository) CreateProductInfo(ctx context.Context, info *ProductInfo) error {
	id, err := newID()
	if err != nil {
		return err
	}
	info.ID = id

	_, err = r.db.Exec(ctx,
		`INSERT INTO product_info (id, model, price, price_rrc, product_id, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		info.ID, info.Model, info.Price, info.PriceRRC, info.ProductID, info.UserID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert product info: %w", err)
	}
	return nil
}

func (r *postgresRepository) InfosByProduct(ctx context.Context, productID uuid.UUID) ([]ProductInfo, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, model, price, price_rrc, product_id, user_id FROM product_info WHERE product_id = $1`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query infos for product %s: %w", productID, err)
	}
	defer rows.Close()

	infos := make([]ProductInfo, 0)
	for rows.Next() {
		var info ProductInfo
		if err := rows.Scan(&info.ID, &info.Model, &info.Price, &info.PriceRRC, &info.ProductID, &info.UserID); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product info: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating product infos: %w", err)
	}
	return infos, nil
}

func (r *postgresRepository) CreateStock(ctx context.Context, stock *ShopStock) error {
	id, err := newID()
	if err != nil {
		return err
	}
	stock.ID = id

	now := time.Now().UTC()
	stock.CreatedAt = now
	stock.UpdatedAt = now

	_, err = r.db.Exec(ctx,
		`INSERT INTO shop_stocks (id, shop_id, product_id, quantity, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stock.ID, stock.ShopID, stock.ProductID, stock.Quantity, stock.UserID, stock.CreatedAt, stock.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("repository: stock entry for this shop and product already exists: %w", err)
		}
		return fmt.Errorf("repository: failed to insert shop stock: %w", err)
	}
	return nil
}

func (r *postgresRepository) SaveAttributes(ctx context.Context, infoID uuid.UUID, userID uuid.UUID, attrs Attributes) error {
	id, err := newID()
	if err != nil {
		return err
	}

	var (
		screenSize     *float64
		resolution     *string
		internalMemory *int
		color          *string
		smartTV        *bool
		capacity       *int
	)

	switch a := attrs.(type) {
	case Phone:
		screenSize, resolution = &a.ScreenSize, &a.Resolution
		internalMemory, color = &a.InternalMemory, &a.Color
	case Television:
		screenSize, resolution, smartTV = &a.ScreenSize, &a.Resolution, &a.SmartTV
	case FlashDrive:
		color, capacity = &a.Color, &a.Capacity
	default:
		return fmt.Errorf("repository: unknown attribute kind %q", attrs.Kind())
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO parameters (id, kind, screen_size, resolution, internal_memory, color, smart_tv, capacity, product_info_id, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, string(attrs.Kind()), screenSize, resolution, internalMemory, color, smartTV, capacity, infoID, userID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert parameters: %w", err)
	}
	return nil
}

func (r *postgresRepository) AttributesForInfo(ctx context.Context, infoID uuid.UUID) (Attributes, error) {
	var (
		kind           string
		screenSize     *float64
		resolution     *string
		internalMemory *int
		color          *string
		smartTV        *bool
		capacity       *int
	)

	err := r.db.QueryRow(ctx,
		`SELECT kind, screen_size, resolution, internal_memory, color, smart_tv, capacity
		 FROM parameters WHERE product_info_id = $1`, infoID).
		Scan(&kind, &screenSize, &resolution, &internalMemory, &color, &smartTV, &capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to select parameters for info %s: %w", infoID, err)
	}

	switch AttributeKind(kind) {
	case KindPhone:
		p := Phone{}
		if screenSize != nil {
			p.ScreenSize = *screenSize
		}
		if resolution != nil {
			p.Resolution = *resolution
		}
		if internalMemory != nil {
			p.InternalMemory = *internalMemory
		}
		if color != nil {
			p.Color = *color
		}
		return p, nil
	case KindTelevision:
		tv := Television{}
		if screenSize != nil {
			tv.ScreenSize = *screenSize
		}
		if resolution != nil {
			tv.Resolution = *resolution
		}
		if smartTV != nil {
			tv.SmartTV = *smartTV
		}
		return tv, nil
	case KindFlashDrive:
		fd := FlashDrive{}
		if color != nil {
			fd.Color = *color
		}
		if capacity != nil {
			fd.Capacity = *capacity
		}
		return fd, nil
	}
	return nil, fmt.Errorf("repository: unknown attribute kind %q", kind)
}
