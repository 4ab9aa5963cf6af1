package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/StanislavShvedov/Shop-API-dip/internal/auth"
	"github.com/StanislavShvedov/Shop-API-dip/internal/catalog"
	"github.com/StanislavShvedov/Shop-API-dip/internal/handler"
	"github.com/StanislavShvedov/Shop-API-dip/internal/order"
	"github.com/StanislavShvedov/Shop-API-dip/internal/user"
)

func NewRouter(pool *pgxpool.Pool, notifier order.Notifier) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	userSvc := user.NewService(user.NewRepository(pool))
	userHandler := handler.NewUserHandler(userSvc)
	r.Post("/account/registration", userHandler.Register)
	r.Post("/account/token", userHandler.Login)

	authRepo := auth.NewRepository(pool)
	catalogHandler := handler.NewCatalogHandler(catalog.NewRepository(pool))
	orderSvc := order.NewService(order.NewStore(pool), notifier)
	orderHandler := handler.NewOrderHandler(orderSvc)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(authRepo))

		r.Post("/shops", catalogHandler.CreateShop)
		r.Get("/shops", catalogHandler.ListShops)
		r.Get("/shops/{shopID}/categories", catalogHandler.ListCategories)
		r.Post("/categories", catalogHandler.CreateCategory)
		r.Get("/categories/{categoryID}/products", catalogHandler.ListProducts)
		r.Post("/products", catalogHandler.CreateProduct)
		r.Get("/products/{id}", catalogHandler.GetProduct)
		r.Post("/products/info", catalogHandler.CreateProductInfo)
		r.Post("/stocks", catalogHandler.CreateStock)

		r.Post("/order/products", orderHandler.AddProduct)
		r.Delete("/order/products", orderHandler.RemoveProduct)
		r.Post("/order/place", orderHandler.PlaceOrder)
		r.Get("/orders", orderHandler.ListOrders)
	})

	return r
}
