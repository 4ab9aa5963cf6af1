package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"user_id"`
	Status           Status            `json:"status"`
	DeliveryChoice   bool              `json:"delivery_choice"`
	TotalPrice       decimal.Decimal   `json:"total_price"`
	Lines            []Line            `json:"order_products"`
	DeliveryContacts *DeliveryContacts `json:"delivery_contacts,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Line — позиция заказа. StockID указывает на конкретную складскую запись,
// из которой зарезервировано количество Quantity.
type Line struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	StockID     uuid.UUID       `json:"stock_id"`
	Quantity    int             `json:"quantity"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type DeliveryContacts struct {
	ID              uuid.UUID `json:"-"`
	City            string    `json:"city"`
	Street          string    `json:"street"`
	HouseNumber     string    `json:"house_number"`
	ApartmentNumber string    `json:"apartment_number"`
	PhoneNumber     string    `json:"phone_number"`
}
