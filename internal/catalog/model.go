package catalog

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Shop struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	UserID uuid.UUID `json:"user_id"`
}

type ProductCategory struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	ShopID uuid.UUID `json:"shop_id"`
	UserID uuid.UUID `json:"user_id"`
}

type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CategoryID  uuid.UUID `json:"category_id"`
	IsAvailable bool      `json:"is_available"`
	UserID      uuid.UUID `json:"user_id"`
}

type ProductInfo struct {
	ID        uuid.UUID       `json:"id"`
	Model     string          `json:"model"`
	Price     decimal.Decimal `json:"price"`
	PriceRRC  decimal.Decimal `json:"price_rrc"`
	ProductID uuid.UUID       `json:"product_id"`
	UserID    uuid.UUID       `json:"user_id"`
}

// ShopStock — складская запись: количество конкретного товара в конкретном
// магазине. Меняется только через inventory.Ledger, напрямую её не трогаем.
type ShopStock struct {
	ID        uuid.UUID `json:"id"`
	ShopID    uuid.UUID `json:"shop_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
