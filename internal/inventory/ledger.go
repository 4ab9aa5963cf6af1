package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/StanislavShvedov/Shop-API-dip/internal/catalog"
)

// ErrInsufficientStock возвращается, когда на складе меньше товара, чем
// запрошено. Складская запись при этом не меняется.
var ErrInsufficientStock = errors.New("insufficient stock")

// Store — персистентность, через которую леджер записывает новое количество.
// Вызывающая сторона обязана передавать складскую запись, заблокированную в
// рамках текущей транзакции: леджер сам блокировок не берёт.
type Store interface {
	SetStockQuantity(ctx context.Context, stockID uuid.UUID, quantity int) error
}

// Ledger — единственная точка изменения складских остатков. Reserve и
// Release поддерживают инвариант quantity >= 0.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Reserve списывает quantity со складской записи. Если товара не хватает,
// возвращает ErrInsufficientStock, ничего не меняя.
func (l *Ledger) Reserve(ctx context.Context, stock *catalog.ShopStock, quantity int) (int, error) {
	if quantity <= 0 {
		return stock.Quantity, fmt.Errorf("ledger: reserve quantity must be positive, got %d", quantity)
	}
	if stock.Quantity < quantity {
		log.Warn().
			Stringer("stock_id", stock.ID).
			Int("available", stock.Quantity).
			Int("requested", quantity).
			Msg("ledger: reservation rejected, not enough stock")
		return stock.Quantity, ErrInsufficientStock
	}

	newQuantity := stock.Quantity - quantity
	if err := l.store.SetStockQuantity(ctx, stock.ID, newQuantity); err != nil {
		return stock.Quantity, fmt.Errorf("ledger: failed to persist reservation: %w", err)
	}
	stock.Quantity = newQuantity
	return newQuantity, nil
}

// Release возвращает quantity на склад. Вызывается при удалении позиций из
// заказа, поэтому всегда успешен с точки зрения бизнес-правил.
func (l *Ledger) Release(ctx context.Context, stock *catalog.ShopStock, quantity int) (int, error) {
	if quantity <= 0 {
		return stock.Quantity, fmt.Errorf("ledger: release quantity must be positive, got %d", quantity)
	}

	newQuantity := stock.Quantity + quantity
	if err := l.store.SetStockQuantity(ctx, stock.ID, newQuantity); err != nil {
		return stock.Quantity, fmt.Errorf("ledger: failed to persist release: %w", err)
	}
	stock.Quantity = newQuantity
	return newQuantity, nil
}
