package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/StanislavShvedov/Shop-API-dip/internal/auth"
	"github.com/StanislavShvedov/Shop-API-dip/internal/inventory"
	"github.com/StanislavShvedov/Shop-API-dip/internal/order"
)

// OrderHandler handles HTTP requests for the order lifecycle.
type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type cartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type placeOrderRequest struct {
	DeliveryChoice  bool   `json:"delivery_choice"`
	City            string `json:"city"`
	Street          string `json:"street"`
	HouseNumber     string `json:"house_number"`
	ApartmentNumber string `json:"apartment_number"`
	PhoneNumber     string `json:"phone_number"`
}

type orderResponse struct {
	Message string       `json:"message"`
	Order   *order.Order `json:"order"`
}

// AddProduct handles adding a product to the user's working order.
func (h *OrderHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ord, err := h.svc.AddProduct(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Message: "product added to order", Order: ord})
}

// RemoveProduct handles removing a product quantity from the working order.
func (h *OrderHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ord, err := h.svc.RemoveProduct(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Message: "product removed from order", Order: ord})
}

// PlaceOrder handles order finalization.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ord, err := h.svc.PlaceOrder(r.Context(), user.ID, order.PlaceOrderInput{
		DeliveryChoice:  req.DeliveryChoice,
		City:            req.City,
		Street:          req.Street,
		HouseNumber:     req.HouseNumber,
		ApartmentNumber: req.ApartmentNumber,
		PhoneNumber:     req.PhoneNumber,
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Message: "order placed", Order: ord})
}

// ListOrders returns orders visible to the requestor per their role.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), order.Requestor{
		UserID:      user.ID,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		http.Error(w, "failed to list orders", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func writeOrderError(w http.ResponseWriter, err error) {
	var missing *order.MissingFieldsError
	switch {
	case errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrProductUnavailable),
		errors.Is(err, order.ErrOrderFinalized),
		errors.As(err, &missing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, inventory.ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, order.ErrStockNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("Order operation failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
