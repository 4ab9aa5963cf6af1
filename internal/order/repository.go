package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/StanislavShvedov/Shop-API-dip/internal/catalog"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool *pgxpool.Pool // nil у транзакционной копии
	q    querier
}

func NewStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool, q: pool}
}

func (s *postgresStore) InTx(ctx context.Context, fn func(Store) error) (err error) {
	if s.pool == nil {
		// Уже внутри транзакции — вложенные вызовы работают на той же копии.
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	err = fn(&postgresStore{q: tx})
	return err
}

const orderColumns = `id, user_id, status, delivery_choice, total_price, delivery_contacts_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o          Order
		contactsID *uuid.UUID
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.DeliveryChoice, &o.TotalPrice, &contactsID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if contactsID != nil {
		o.DeliveryContacts = &DeliveryContacts{ID: *contactsID}
	}
	return &o, nil
}

func (s *postgresStore) ActiveOrderByUser(ctx context.Context, userID uuid.UUID) (*Order, error) {
	o, err := scanOrder(s.q.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 AND status IN ('empty', 'new')
		 ORDER BY created_at DESC
		 LIMIT 1
		 FOR UPDATE`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to select active order for user %s: %w", userID, err)
	}
	return o, nil
}

func (s *postgresStore) LatestOrderByUser(ctx context.Context, userID uuid.UUID) (*Order, error) {
	o, err := scanOrder(s.q.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1
		 FOR UPDATE`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to select latest order for user %s: %w", userID, err)
	}
	return o, nil
}

func (s *postgresStore) CreateOrder(ctx context.Context, userID uuid.UUID) (*Order, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to generate order id: %w", err)
	}

	now := time.Now().UTC()
	o := &Order{
		ID:         id,
		UserID:     userID,
		Status:     StatusEmpty,
		TotalPrice: decimal.Zero,
		Lines:      make([]Line, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = s.q.Exec(ctx,
		`INSERT INTO orders (id, user_id, status, delivery_choice, total_price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.UserID, string(o.Status), o.DeliveryChoice, o.TotalPrice, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}
	return o, nil
}

const lineSelect = `
	SELECT l.id, l.order_id, l.product_id, l.stock_id, l.quantity, p.name, COALESCE(pi.price, 0)
	FROM order_lines l
	JOIN products p ON p.id = l.product_id
	LEFT JOIN LATERAL (
		SELECT price FROM product_info WHERE product_id = l.product_id LIMIT 1
	) pi ON true`

func scanLine(row pgx.Row) (*Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.StockID, &l.Quantity, &l.ProductName, &l.UnitPrice)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *postgresStore) LinesByOrder(ctx context.Context, orderID uuid.UUID) ([]Line, error) {
	rows, err := s.q.Query(ctx, lineSelect+` WHERE l.order_id = $1 ORDER BY p.name`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query lines for order %s: %w", orderID, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line: %w", err)
		}
		lines = append(lines, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines: %w", err)
	}
	return lines, nil
}

func (s *postgresStore) LineForProduct(ctx context.Context, orderID, productID uuid.UUID) (*Line, error) {
	l, err := scanLine(s.q.QueryRow(ctx, lineSelect+` WHERE l.order_id = $1 AND l.product_id = $2`, orderID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to select line for order %s product %s: %w", orderID, productID, err)
	}
	return l, nil
}

func (s *postgresStore) InsertLine(ctx context.Context, line *Line) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate line id: %w", err)
	}
	line.ID = id

	_, err = s.q.Exec(ctx,
		`INSERT INTO order_lines (id, order_id, product_id, stock_id, quantity)
		 VALUES ($1, $2, $3, $4, $5)`,
		line.ID, line.OrderID, line.ProductID, line.StockID, line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order line: %w", err)
	}
	return nil
}

func (s *postgresStore) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	ct, err := s.q.Exec(ctx, `UPDATE order_lines SET quantity = $2 WHERE id = $1`, lineID, quantity)
	if err != nil {
		return fmt.Errorf("repository: failed to update line %s quantity: %w", lineID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("repository: line %s not found for quantity update", lineID)
	}
	return nil
}

func (s *postgresStore) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM order_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete line %s: %w", lineID, err)
	}
	return nil
}

func (s *postgresStore) ProductForSale(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	var p catalog.Product
	err := s.q.QueryRow(ctx,
		`SELECT id, name, category_id, is_available, user_id FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.Name, &p.CategoryID, &p.IsAvailable, &p.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", productID, err)
	}
	return &p, nil
}

const stockColumns = `id, shop_id, product_id, quantity, user_id, created_at, updated_at`

func scanStock(row pgx.Row) (*catalog.ShopStock, error) {
	var st catalog.ShopStock
	err := row.Scan(&st.ID, &st.ShopID, &st.ProductID, &st.Quantity, &st.UserID, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// StockForProductForUpdate блокирует складскую запись товара до конца
// транзакции. Блокировка именно этой строки — то, что не даёт двум
// конкурентным резервированиям пройти проверку достаточности по одному и
// тому же остатку.
func (s *postgresStore) StockForProductForUpdate(ctx context.Context, productID uuid.UUID) (*catalog.ShopStock, error) {
	st, err := scanStock(s.q.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM shop_stocks
		 WHERE product_id = $1
		 ORDER BY created_at
		 LIMIT 1
		 FOR UPDATE`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to lock stock for product %s: %w", productID, err)
	}
	return st, nil
}

func (s *postgresStore) StockByIDForUpdate(ctx context.Context, stockID uuid.UUID) (*catalog.ShopStock, error) {
	st, err := scanStock(s.q.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM shop_stocks WHERE id = $1 FOR UPDATE`, stockID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to lock stock %s: %w", stockID, err)
	}
	return st, nil
}

func (s *postgresStore) SetStockQuantity(ctx context.Context, stockID uuid.UUID, quantity int) error {
	ct, err := s.q.Exec(ctx,
		`UPDATE shop_stocks SET quantity = $2, updated_at = $3 WHERE id = $1`,
		stockID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to update stock %s quantity: %w", stockID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("repository: stock %s not found for quantity update", stockID)
	}
	return nil
}

func (s *postgresStore) SaveTotals(ctx context.Context, orderID uuid.UUID, total decimal.Decimal, status Status) error {
	ct, err := s.q.Exec(ctx,
		`UPDATE orders SET total_price = $2, status = $3, updated_at = $4 WHERE id = $1`,
		orderID, total, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to save totals for order %s: %w", orderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("repository: order %s not found for totals update", orderID)
	}
	return nil
}

func (s *postgresStore) CreateDeliveryContacts(ctx context.Context, contacts *DeliveryContacts) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate delivery contacts id: %w", err)
	}
	contacts.ID = id

	_, err = s.q.Exec(ctx,
		`INSERT INTO delivery_contacts (id, city, street, house_number, apartment_number, phone_number)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		contacts.ID, contacts.City, contacts.Street, contacts.HouseNumber, contacts.ApartmentNumber, contacts.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert delivery contacts: %w", err)
	}
	return nil
}

func (s *postgresStore) FinalizeOrder(ctx context.Context, orderID uuid.UUID, deliveryChoice bool, contactsID *uuid.UUID) error {
	ct, err := s.q.Exec(ctx,
		`UPDATE orders
		 SET status = $2, delivery_choice = $3, delivery_contacts_id = $4, updated_at = $5
		 WHERE id = $1`,
		orderID, string(StatusDone), deliveryChoice, contactsID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to finalize order %s: %w", orderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("repository: order %s not found for finalization", orderID)
	}
	return nil
}

func (s *postgresStore) ListAllOrders(ctx context.Context) ([]Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (s *postgresStore) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListOrdersByShopOwner возвращает заказы, в которых есть хотя бы одна
// позиция, отгружаемая из магазина владельца.
func (s *postgresStore) ListOrdersByShopOwner(ctx context.Context, ownerID uuid.UUID) ([]Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders o
		 WHERE EXISTS (
			SELECT 1
			FROM order_lines l
			JOIN shop_stocks ss ON ss.id = l.stock_id
			JOIN shops sh ON sh.id = ss.shop_id
			WHERE l.order_id = o.id AND sh.user_id = $1
		 )
		 ORDER BY o.created_at DESC`, ownerID)
}

func (s *postgresStore) listOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Lines = make([]Line, 0)
		ordersMap[o.ID] = o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	lineRows, err := s.q.Query(ctx, lineSelect+` WHERE l.order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query lines for orders: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		l, err := scanLine(lineRows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line: %w", err)
		}
		if o, ok := ordersMap[l.OrderID]; ok {
			o.Lines = append(o.Lines, *l)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines: %w", err)
	}

	var contactIDs []uuid.UUID
	for _, o := range ordersMap {
		if o.DeliveryContacts != nil {
			contactIDs = append(contactIDs, o.DeliveryContacts.ID)
		}
	}
	if len(contactIDs) > 0 {
		contacts, err := s.deliveryContactsByIDs(ctx, contactIDs)
		if err != nil {
			return nil, err
		}
		for _, o := range ordersMap {
			if o.DeliveryContacts != nil {
				if dc, ok := contacts[o.DeliveryContacts.ID]; ok {
					o.DeliveryContacts = &dc
				}
			}
		}
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *ordersMap[id])
	}
	return result, nil
}

func (s *postgresStore) deliveryContactsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]DeliveryContacts, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, city, street, house_number, apartment_number, phone_number
		 FROM delivery_contacts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query delivery contacts: %w", err)
	}
	defer rows.Close()

	contacts := make(map[uuid.UUID]DeliveryContacts)
	for rows.Next() {
		var dc DeliveryContacts
		if err := rows.Scan(&dc.ID, &dc.City, &dc.Street, &dc.HouseNumber, &dc.ApartmentNumber, &dc.PhoneNumber); err != nil {
			return nil, fmt.Errorf("repository: failed to scan delivery contacts: %w", err)
		}
		contacts[dc.ID] = dc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating delivery contacts: %w", err)
	}
	return contacts, nil
}

func (s *postgresStore) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := s.q.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		return "", fmt.Errorf("repository: failed to select email for user %s: %w", userID, err)
	}
	return email, nil
}

func (s *postgresStore) ShopOwnerEmailsForOrder(ctx context.Context, orderID uuid.UUID) ([]string, error) {
	rows, err := s.q.Query(ctx,
		`SELECT DISTINCT u.email
		 FROM order_lines l
		 JOIN shop_stocks ss ON ss.id = l.stock_id
		 JOIN shops sh ON sh.id = ss.shop_id
		 JOIN users u ON u.id = sh.user_id
		 WHERE l.order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query shop owner emails for order %s: %w", orderID, err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("repository: failed to scan shop owner email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating shop owner emails: %w", err)
	}
	return emails, nil
}
