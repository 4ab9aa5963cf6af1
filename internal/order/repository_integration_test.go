package order_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StanislavShvedov/Shop-API-dip/internal/config"
	"github.com/StanislavShvedov/Shop-API-dip/internal/db"
	"github.com/StanislavShvedov/Shop-API-dip/internal/order"
)

// Интеграционные тесты гоняются против живого Postgres и пропускаются, когда
// DB_HOST не задан. Миграции накатываются при подключении.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	host := os.Getenv("DB_HOST")
	if host == "" {
		os.Exit(m.Run())
	}

	cfg := config.PostgresConfig{
		Host:            host,
		Port:            envOr("DB_PORT", "5432"),
		User:            envOr("DB_USER", "postgres"),
		Password:        envOr("DB_PASSWORD", "postgres"),
		DBName:          envOr("DB_NAME", "shop_test"),
		SSLMode:         envOr("DB_SSLMODE", "disable"),
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
		MigrationsPath:  "../../migrations",
	}

	pg, err := db.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v (host=%s, dbname=%s)", err, cfg.Host, cfg.DBName)
	}
	testPool = pg.Pool

	exitCode := m.Run()

	pg.Close()
	os.Exit(exitCode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type storeFixture struct {
	store      order.Store
	customerID uuid.UUID
	ownerID    uuid.UUID
	productID  uuid.UUID
	stockID    uuid.UUID
}

func setupStore(t *testing.T) *storeFixture {
	if testPool == nil {
		t.Skip("integration tests require DB_HOST")
	}

	ctx := context.Background()

	// Очистка перед тестом и после него.
	truncate := func() {
		_, err := testPool.Exec(ctx,
			`TRUNCATE TABLE order_lines, orders, delivery_contacts, parameters, product_info,
			 shop_stocks, products, product_categories, shops, auth_tokens, users CASCADE`)
		if err != nil {
			t.Fatalf("Failed to truncate tables: %v", err)
		}
	}
	truncate()
	t.Cleanup(truncate)

	f := &storeFixture{
		store:      order.NewStore(testPool),
		customerID: uuid.Must(uuid.NewV4()),
		ownerID:    uuid.Must(uuid.NewV4()),
		productID:  uuid.Must(uuid.NewV4()),
		stockID:    uuid.Must(uuid.NewV4()),
	}

	shopID := uuid.Must(uuid.NewV4())
	categoryID := uuid.Must(uuid.NewV4())
	infoID := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	for _, q := range []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO users (id, username, email, password_hash, is_staff, is_superuser, created_at)
		  VALUES ($1, 'customer', 'customer@mail.ru', 'x', false, false, $2)`, []any{f.customerID, now}},
		{`INSERT INTO users (id, username, email, password_hash, is_staff, is_superuser, created_at)
		  VALUES ($1, 'owner', 'owner@shop.ru', 'x', true, false, $2)`, []any{f.ownerID, now}},
		{`INSERT INTO shops (id, name, user_id) VALUES ($1, 'Связной', $2)`, []any{shopID, f.ownerID}},
		{`INSERT INTO product_categories (id, name, shop_id, user_id) VALUES ($1, 'Смартфоны', $2, $3)`,
			[]any{categoryID, shopID, f.ownerID}},
		{`INSERT INTO products (id, name, category_id, is_available, user_id) VALUES ($1, 'Смартфон', $2, true, $3)`,
			[]any{f.productID, categoryID, f.ownerID}},
		{`INSERT INTO product_info (id, model, price, price_rrc, product_id, user_id)
		  VALUES ($1, 'X-100', 150.50, 180.00, $2, $3)`, []any{infoID, f.productID, f.ownerID}},
		{`INSERT INTO shop_stocks (id, shop_id, product_id, quantity, user_id, created_at, updated_at)
		  VALUES ($1, $2, $3, 10, $4, $5, $5)`, []any{f.stockID, shopID, f.productID, f.ownerID, now}},
	} {
		if _, err := testPool.Exec(ctx, q.sql, q.args...); err != nil {
			t.Fatalf("Failed to seed catalog: %v", err)
		}
	}

	return f
}

func TestPostgresStore_InTxRollbackOnError(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := f.store.InTx(ctx, func(st order.Store) error {
		if _, err := st.CreateOrder(ctx, f.customerID); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// Транзакция откатилась — заказа нет.
	ord, err := f.store.ActiveOrderByUser(ctx, f.customerID)
	require.NoError(t, err)
	assert.Nil(t, ord)
}

func TestPostgresStore_ActiveOrderLookup(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	ord, err := f.store.ActiveOrderByUser(ctx, f.customerID)
	require.NoError(t, err)
	assert.Nil(t, ord)

	var created *order.Order
	err = f.store.InTx(ctx, func(st order.Store) error {
		var err error
		created, err = st.CreateOrder(ctx, f.customerID)
		return err
	})
	require.NoError(t, err)

	ord, err = f.store.ActiveOrderByUser(ctx, f.customerID)
	require.NoError(t, err)
	require.NotNil(t, ord)
	assert.Equal(t, created.ID, ord.ID)
	assert.Equal(t, order.StatusEmpty, ord.Status)
	assert.True(t, ord.TotalPrice.IsZero())

	// После завершения заказ перестаёт быть рабочим, но остаётся последним.
	err = f.store.InTx(ctx, func(st order.Store) error {
		return st.FinalizeOrder(ctx, created.ID, false, nil)
	})
	require.NoError(t, err)

	ord, err = f.store.ActiveOrderByUser(ctx, f.customerID)
	require.NoError(t, err)
	assert.Nil(t, ord)

	latest, err := f.store.LatestOrderByUser(ctx, f.customerID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, order.StatusDone, latest.Status)
}

func TestPostgresStore_OneActiveOrderPerUser(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	err := f.store.InTx(ctx, func(st order.Store) error {
		_, err := st.CreateOrder(ctx, f.customerID)
		return err
	})
	require.NoError(t, err)

	// Частичный уникальный индекс не пускает второй рабочий заказ.
	err = f.store.InTx(ctx, func(st order.Store) error {
		_, err := st.CreateOrder(ctx, f.customerID)
		return err
	})
	assert.Error(t, err)
}

func TestPostgresStore_StockLockAndQuantity(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	err := f.store.InTx(ctx, func(st order.Store) error {
		stock, err := st.StockForProductForUpdate(ctx, f.productID)
		if err != nil {
			return err
		}
		require.NotNil(t, stock)
		assert.Equal(t, f.stockID, stock.ID)
		assert.Equal(t, 10, stock.Quantity)
		return st.SetStockQuantity(ctx, stock.ID, 6)
	})
	require.NoError(t, err)

	stock, err := f.store.StockByIDForUpdate(ctx, f.stockID)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, 6, stock.Quantity)

	// CHECK quantity >= 0 держит инвариант на уровне схемы.
	err = f.store.InTx(ctx, func(st order.Store) error {
		return st.SetStockQuantity(ctx, f.stockID, -1)
	})
	assert.Error(t, err)

	stock, err = f.store.StockByIDForUpdate(ctx, f.stockID)
	require.NoError(t, err)
	assert.Equal(t, 6, stock.Quantity)
}

func TestPostgresStore_LinesCarryNameAndPrice(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	var orderID uuid.UUID
	err := f.store.InTx(ctx, func(st order.Store) error {
		ord, err := st.CreateOrder(ctx, f.customerID)
		if err != nil {
			return err
		}
		orderID = ord.ID
		return st.InsertLine(ctx, &order.Line{
			OrderID:   ord.ID,
			ProductID: f.productID,
			StockID:   f.stockID,
			Quantity:  2,
		})
	})
	require.NoError(t, err)

	lines, err := f.store.LinesByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Смартфон", lines[0].ProductName)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("150.50")),
		"unit price %s", lines[0].UnitPrice)
	assert.Equal(t, 2, lines[0].Quantity)

	line, err := f.store.LineForProduct(ctx, orderID, f.productID)
	require.NoError(t, err)
	require.NotNil(t, line)

	require.NoError(t, f.store.DeleteLine(ctx, line.ID))
	lines, err = f.store.LinesByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
