package order

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/StanislavShvedov/Shop-API-dip/internal/catalog"
)

// Store — персистентность заказов, позиций и складских записей. Методы
// *NotFound не возвращают: отсутствие строки кодируется (nil, nil), решение
// о том, какая это бизнес-ошибка, принимает сервис.
//
// InTx выполняет fn на транзакционно-связанной копии стора: всё, что fn
// читает и пишет, происходит в одной транзакции, а методы *ForUpdate берут
// блокировку строки до конца этой транзакции.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	ActiveOrderByUser(ctx context.Context, userID uuid.UUID) (*Order, error)
	LatestOrderByUser(ctx context.Context, userID uuid.UUID) (*Order, error)
	CreateOrder(ctx context.Context, userID uuid.UUID) (*Order, error)

	LinesByOrder(ctx context.Context, orderID uuid.UUID) ([]Line, error)
	LineForProduct(ctx context.Context, orderID, productID uuid.UUID) (*Line, error)
	InsertLine(ctx context.Context, line *Line) error
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error

	ProductForSale(ctx context.Context, productID uuid.UUID) (*catalog.Product, error)
	StockForProductForUpdate(ctx context.Context, productID uuid.UUID) (*catalog.ShopStock, error)
	StockByIDForUpdate(ctx context.Context, stockID uuid.UUID) (*catalog.ShopStock, error)
	SetStockQuantity(ctx context.Context, stockID uuid.UUID, quantity int) error

	SaveTotals(ctx context.Context, orderID uuid.UUID, total decimal.Decimal, status Status) error
	CreateDeliveryContacts(ctx context.Context, contacts *DeliveryContacts) error
	FinalizeOrder(ctx context.Context, orderID uuid.UUID, deliveryChoice bool, contactsID *uuid.UUID) error

	ListAllOrders(ctx context.Context) ([]Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrdersByShopOwner(ctx context.Context, ownerID uuid.UUID) ([]Order, error)

	UserEmail(ctx context.Context, userID uuid.UUID) (string, error)
	ShopOwnerEmailsForOrder(ctx context.Context, orderID uuid.UUID) ([]string, error)
}
