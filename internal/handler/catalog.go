package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/StanislavShvedov/Shop-API-dip/internal/auth"
	"github.com/StanislavShvedov/Shop-API-dip/internal/catalog"
)

// CatalogHandler handles provisioning and browsing of catalog entities.
type CatalogHandler struct {
	repo catalog.Repository
}

func NewCatalogHandler(repo catalog.Repository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) CreateShop(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	shop := &catalog.Shop{Name: req.Name, UserID: user.ID}
	if err := h.repo.CreateShop(r.Context(), shop); err != nil {
		if errors.Is(err, catalog.ErrNameTaken) {
			http.Error(w, "shop with this name already exists", http.StatusConflict)
			return
		}
		log.Error().Err(err).Msg("Failed to create shop")
		http.Error(w, "failed to create shop", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, shop)
}

func (h *CatalogHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.repo.ListShops(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list shops")
		http.Error(w, "failed to list shops", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, shops)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name   string    `json:"name"`
		ShopID uuid.UUID `json:"shop_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	category := &catalog.ProductCategory{Name: req.Name, ShopID: req.ShopID, UserID: user.ID}
	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		log.Error().Err(err).Msg("Failed to create category")
		http.Error(w, "failed to create category", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	shopID, err := uuid.FromString(chi.URLParam(r, "shopID"))
	if err != nil {
		http.Error(w, "invalid shop id", http.StatusBadRequest)
		return
	}

	categories, err := h.repo.ListCategoriesByShop(r.Context(), shopID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list categories")
		http.Error(w, "failed to list categories", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name        string    `json:"name"`
		CategoryID  uuid.UUID `json:"category_id"`
		IsAvailable *bool     `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	product := &catalog.Product{Name: req.Name, CategoryID: req.CategoryID, IsAvailable: available, UserID: user.ID}
	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		log.Error().Err(err).Msg("Failed to create product")
		http.Error(w, "failed to create product", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

type productInfoDetail struct {
	catalog.ProductInfo
	Attributes catalog.Attributes `json:"attributes,omitempty"`
}

type productDetail struct {
	*catalog.Product
	Infos []productInfoDetail `json:"product_infos"`
}

// GetProduct returns the product together with its infos and their
// category-specific attributes.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	product, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("Failed to get product")
		http.Error(w, "failed to get product", http.StatusInternalServerError)
		return
	}

	infos, err := h.repo.InfosByProduct(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get product infos")
		http.Error(w, "failed to get product", http.StatusInternalServerError)
		return
	}

	detail := productDetail{Product: product, Infos: make([]productInfoDetail, 0, len(infos))}
	for _, info := range infos {
		attrs, err := h.repo.AttributesForInfo(r.Context(), info.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to get product attributes")
			http.Error(w, "failed to get product", http.StatusInternalServerError)
			return
		}
		detail.Infos = append(detail.Infos, productInfoDetail{ProductInfo: info, Attributes: attrs})
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.FromString(chi.URLParam(r, "categoryID"))
	if err != nil {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}

	products, err := h.repo.ListProductsByCategory(r.Context(), categoryID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		http.Error(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type productInfoRequest struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Model      string          `json:"model"`
	Price      decimal.Decimal `json:"price"`
	PriceRRC   decimal.Decimal `json:"price_rrc"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

func (h *CatalogHandler) CreateProductInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req productInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	info := &catalog.ProductInfo{
		Model:     req.Model,
		Price:     req.Price,
		PriceRRC:  req.PriceRRC,
		ProductID: req.ProductID,
		UserID:    user.ID,
	}
	if err := h.repo.CreateProductInfo(r.Context(), info); err != nil {
		log.Error().Err(err).Msg("Failed to create product info")
		http.Error(w, "failed to create product info", http.StatusInternalServerError)
		return
	}

	if len(req.Attributes) > 0 {
		attrs, err := decodeAttributes(req.Attributes)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.repo.SaveAttributes(r.Context(), info.ID, user.ID, attrs); err != nil {
			log.Error().Err(err).Msg("Failed to save product attributes")
			http.Error(w, "failed to save product attributes", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusCreated, info)
}

func (h *CatalogHandler) CreateStock(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		ShopID    uuid.UUID `json:"shop_id"`
		ProductID uuid.UUID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 0 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	stock := &catalog.ShopStock{ShopID: req.ShopID, ProductID: req.ProductID, Quantity: req.Quantity, UserID: user.ID}
	if err := h.repo.CreateStock(r.Context(), stock); err != nil {
		log.Error().Err(err).Msg("Failed to create stock entry")
		http.Error(w, "failed to create stock entry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, stock)
}

func decodeAttributes(raw json.RawMessage) (catalog.Attributes, error) {
	var probe struct {
		Kind catalog.AttributeKind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, errors.New("invalid attributes")
	}

	switch probe.Kind {
	case catalog.KindPhone:
		var a catalog.Phone
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, errors.New("invalid phone attributes")
		}
		return a, nil
	case catalog.KindTelevision:
		var a catalog.Television
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, errors.New("invalid television attributes")
		}
		return a, nil
	case catalog.KindFlashDrive:
		var a catalog.FlashDrive
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, errors.New("invalid flash drive attributes")
		}
		return a, nil
	}
	return nil, errors.New("unknown attributes kind")
}
