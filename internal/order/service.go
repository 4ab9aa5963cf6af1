package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/StanislavShvedov/Shop-API-dip/internal/inventory"
)

// Requestor — аутентифицированный пользователь, от имени которого
// выполняется операция. Флаги определяют видимость заказов в ListOrders.
type Requestor struct {
	UserID      uuid.UUID
	IsStaff     bool
	IsSuperuser bool
}

type PlaceOrderInput struct {
	DeliveryChoice  bool
	City            string
	Street          string
	HouseNumber     string
	ApartmentNumber string
	PhoneNumber     string
}

type Service interface {
	AddProduct(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Order, error)
	RemoveProduct(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Order, error)
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*Order, error)
	ListOrders(ctx context.Context, requestor Requestor) ([]Order, error)
}

// Notifier отправляет письмо получателю. Доставка best-effort: сервис
// логирует отказ, но не откатывает оформленный заказ.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

type service struct {
	store    Store
	notifier Notifier
}

func NewService(store Store, notifier Notifier) Service {
	return &service{store: store, notifier: notifier}
}

func (s *service) AddProduct(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var result *Order
	err := s.store.InTx(ctx, func(st Store) error {
		ord, err := s.workingOrder(ctx, st, userID, true)
		if err != nil {
			return err
		}

		product, err := st.ProductForSale(ctx, productID)
		if err != nil {
			return fmt.Errorf("service: failed to look up product: %w", err)
		}
		if product == nil {
			return ErrProductNotFound
		}
		if !product.IsAvailable {
			return ErrProductUnavailable
		}

		stock, err := st.StockForProductForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("service: failed to lock stock: %w", err)
		}
		if stock == nil {
			return ErrStockNotFound
		}

		ledger := inventory.NewLedger(st)
		if _, err := ledger.Reserve(ctx, stock, quantity); err != nil {
			return err
		}

		line, err := st.LineForProduct(ctx, ord.ID, productID)
		if err != nil {
			return fmt.Errorf("service: failed to look up order line: %w", err)
		}
		if line != nil {
			if err := st.UpdateLineQuantity(ctx, line.ID, line.Quantity+quantity); err != nil {
				return fmt.Errorf("service: failed to increase line quantity: %w", err)
			}
		} else {
			newLine := &Line{OrderID: ord.ID, ProductID: productID, StockID: stock.ID, Quantity: quantity}
			if err := st.InsertLine(ctx, newLine); err != nil {
				return fmt.Errorf("service: failed to insert order line: %w", err)
			}
		}

		result, err = s.refreshTotals(ctx, st, ord)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Stringer("order_id", result.ID).
		Stringer("product_id", productID).
		Int("quantity", quantity).
		Msg("service: product added to order")
	return result, nil
}

func (s *service) RemoveProduct(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var result *Order
	err := s.store.InTx(ctx, func(st Store) error {
		ord, err := s.workingOrder(ctx, st, userID, false)
		if err != nil {
			return err
		}

		line, err := st.LineForProduct(ctx, ord.ID, productID)
		if err != nil {
			return fmt.Errorf("service: failed to look up order line: %w", err)
		}
		if line == nil {
			return ErrOrderNotFound
		}
		if quantity > line.Quantity {
			return ErrInvalidQuantity
		}

		stock, err := st.StockByIDForUpdate(ctx, line.StockID)
		if err != nil {
			return fmt.Errorf("service: failed to lock stock: %w", err)
		}
		if stock == nil {
			return ErrStockNotFound
		}

		ledger := inventory.NewLedger(st)
		if _, err := ledger.Release(ctx, stock, quantity); err != nil {
			return err
		}

		if quantity == line.Quantity {
			if err := st.DeleteLine(ctx, line.ID); err != nil {
				return fmt.Errorf("service: failed to delete order line: %w", err)
			}
		} else {
			if err := st.UpdateLineQuantity(ctx, line.ID, line.Quantity-quantity); err != nil {
				return fmt.Errorf("service: failed to decrease line quantity: %w", err)
			}
		}

		result, err = s.refreshTotals(ctx, st, ord)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Stringer("order_id", result.ID).
		Stringer("product_id", productID).
		Int("quantity", quantity).
		Msg("service: product removed from order")
	return result, nil
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*Order, error) {
	var result *Order
	err := s.store.InTx(ctx, func(st Store) error {
		ord, err := st.ActiveOrderByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("service: failed to look up active order: %w", err)
		}
		if ord == nil || ord.Status != StatusNew {
			return ErrOrderNotFound
		}

		var (
			contacts   *DeliveryContacts
			contactsID *uuid.UUID
		)
		if input.DeliveryChoice {
			if missing := missingDeliveryFields(input); len(missing) > 0 {
				return &MissingFieldsError{Fields: missing}
			}
			contacts = &DeliveryContacts{
				City:            input.City,
				Street:          input.Street,
				HouseNumber:     input.HouseNumber,
				ApartmentNumber: input.ApartmentNumber,
				PhoneNumber:     input.PhoneNumber,
			}
			if err := st.CreateDeliveryContacts(ctx, contacts); err != nil {
				return fmt.Errorf("service: failed to save delivery contacts: %w", err)
			}
			contactsID = &contacts.ID
		}

		if err := st.FinalizeOrder(ctx, ord.ID, input.DeliveryChoice, contactsID); err != nil {
			return fmt.Errorf("service: failed to finalize order: %w", err)
		}

		lines, err := st.LinesByOrder(ctx, ord.ID)
		if err != nil {
			return fmt.Errorf("service: failed to load order lines: %w", err)
		}

		ord.Status = StatusDone
		ord.DeliveryChoice = input.DeliveryChoice
		ord.DeliveryContacts = contacts
		ord.Lines = lines
		result = ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Stringer("order_id", result.ID).
		Stringer("user_id", userID).
		Bool("delivery", input.DeliveryChoice).
		Str("total", result.TotalPrice.StringFixed(2)).
		Msg("service: order placed")

	// Уведомления уходят строго после коммита: об откаченном заказе
	// никто не должен узнать.
	s.notifyPlaced(ctx, result)
	return result, nil
}

func (s *service) ListOrders(ctx context.Context, requestor Requestor) ([]Order, error) {
	switch {
	case requestor.IsSuperuser:
		return s.store.ListAllOrders(ctx)
	case requestor.IsStaff:
		return s.store.ListOrdersByShopOwner(ctx, requestor.UserID)
	default:
		return s.store.ListOrdersByUser(ctx, requestor.UserID)
	}
}

// workingOrder находит незавершённый заказ пользователя. Если последний
// заказ завершён, любая мутация запрещена; рабочий заказ создаётся только
// при добавлении первой позиции, когда заказов ещё нет.
func (s *service) workingOrder(ctx context.Context, st Store, userID uuid.UUID, createIfMissing bool) (*Order, error) {
	ord, err := st.ActiveOrderByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to look up active order: %w", err)
	}
	if ord != nil {
		return ord, nil
	}

	latest, err := st.LatestOrderByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to look up latest order: %w", err)
	}
	if latest != nil && !latest.Status.Mutable() {
		return nil, ErrOrderFinalized
	}
	if !createIfMissing {
		return nil, ErrOrderNotFound
	}

	created, err := st.CreateOrder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}
	return created, nil
}

// refreshTotals пересчитывает сумму по текущим позициям и статус по их числу
// в той же транзакции, что и вызвавшая его мутация.
func (s *service) refreshTotals(ctx context.Context, st Store, ord *Order) (*Order, error) {
	lines, err := st.LinesByOrder(ctx, ord.ID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load order lines: %w", err)
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	status := ord.Status
	if !status.Terminal() {
		status = StatusForLineCount(len(lines))
	}

	if err := st.SaveTotals(ctx, ord.ID, total, status); err != nil {
		return nil, fmt.Errorf("service: failed to save totals: %w", err)
	}

	ord.Lines = lines
	ord.TotalPrice = total
	ord.Status = status
	return ord, nil
}

func missingDeliveryFields(input PlaceOrderInput) []string {
	var missing []string
	if input.City == "" {
		missing = append(missing, "city")
	}
	if input.Street == "" {
		missing = append(missing, "street")
	}
	if input.HouseNumber == "" {
		missing = append(missing, "house_number")
	}
	if input.ApartmentNumber == "" {
		missing = append(missing, "apartment_number")
	}
	if input.PhoneNumber == "" {
		missing = append(missing, "phone_number")
	}
	return missing
}

func (s *service) notifyPlaced(ctx context.Context, ord *Order) {
	if s.notifier == nil {
		return
	}

	subject := fmt.Sprintf("Заказ %s оформлен", ord.ID)
	body := orderMailBody(ord)

	recipients := make([]string, 0, 2)
	owners, err := s.store.ShopOwnerEmailsForOrder(ctx, ord.ID)
	if err != nil {
		log.Warn().Err(err).Stringer("order_id", ord.ID).Msg("service: failed to resolve shop owner emails")
	} else {
		recipients = append(recipients, owners...)
	}
	customer, err := s.store.UserEmail(ctx, ord.UserID)
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", ord.UserID).Msg("service: failed to resolve customer email")
	} else {
		recipients = append(recipients, customer)
	}

	for _, recipient := range recipients {
		if err := s.notifier.Send(ctx, recipient, subject, body); err != nil {
			log.Warn().Err(err).
				Str("recipient", recipient).
				Stringer("order_id", ord.ID).
				Msg("service: failed to send order notification")
		}
	}
}

func orderMailBody(ord *Order) string {
	var b strings.Builder
	b.WriteString("Состав заказа:\n")
	for _, l := range ord.Lines {
		fmt.Fprintf(&b, "- %s, %d шт. по %s\n", l.ProductName, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nИтого: %s\n", ord.TotalPrice.StringFixed(2))
	if ord.DeliveryContacts != nil {
		dc := ord.DeliveryContacts
		fmt.Fprintf(&b, "\nДоставка: г. %s, ул. %s, д. %s, кв. %s, тел. %s\n",
			dc.City, dc.Street, dc.HouseNumber, dc.ApartmentNumber, dc.PhoneNumber)
	} else {
		b.WriteString("\nСпособ получения: самовывоз\n")
	}
	return b.String()
}
