package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StanislavShvedov/Shop-API-dip/internal/auth"
	"github.com/StanislavShvedov/Shop-API-dip/internal/catalog"
)

type mockCatalogRepository struct {
	catalog.Repository

	createShopFunc        func(ctx context.Context, shop *catalog.Shop) error
	createProductFunc     func(ctx context.Context, product *catalog.Product) error
	createInfoFunc        func(ctx context.Context, info *catalog.ProductInfo) error
	saveAttributesFunc    func(ctx context.Context, infoID, userID uuid.UUID, attrs catalog.Attributes) error
	getProductFunc        func(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	infosByProductFunc    func(ctx context.Context, productID uuid.UUID) ([]catalog.ProductInfo, error)
	attributesForInfoFunc func(ctx context.Context, infoID uuid.UUID) (catalog.Attributes, error)
}

func (m *mockCatalogRepository) CreateShop(ctx context.Context, shop *catalog.Shop) error {
	return m.createShopFunc(ctx, shop)
}

func (m *mockCatalogRepository) CreateProduct(ctx context.Context, product *catalog.Product) error {
	return m.createProductFunc(ctx, product)
}

func (m *mockCatalogRepository) CreateProductInfo(ctx context.Context, info *catalog.ProductInfo) error {
	return m.createInfoFunc(ctx, info)
}

func (m *mockCatalogRepository) SaveAttributes(ctx context.Context, infoID, userID uuid.UUID, attrs catalog.Attributes) error {
	return m.saveAttributesFunc(ctx, infoID, userID, attrs)
}

func (m *mockCatalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return m.getProductFunc(ctx, id)
}

func (m *mockCatalogRepository) InfosByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.ProductInfo, error) {
	return m.infosByProductFunc(ctx, productID)
}

func (m *mockCatalogRepository) AttributesForInfo(ctx context.Context, infoID uuid.UUID) (catalog.Attributes, error) {
	return m.attributesForInfoFunc(ctx, infoID)
}

func TestCatalogHandler_CreateShop(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		body       string
		repoErr    error
		wantStatus int
	}{
		{name: "created", body: `{"name":"Связной"}`, wantStatus: http.StatusCreated},
		{name: "empty_name", body: `{"name":""}`, wantStatus: http.StatusBadRequest},
		{name: "duplicate_name", body: `{"name":"Связной"}`, repoErr: catalog.ErrNameTaken, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCatalogRepository{
				createShopFunc: func(ctx context.Context, shop *catalog.Shop) error {
					assert.Equal(t, userID, shop.UserID)
					return tt.repoErr
				},
			}
			h := NewCatalogHandler(repo)

			req := httptest.NewRequest(http.MethodPost, "/shops", strings.NewReader(tt.body))
			req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: userID}))
			rec := httptest.NewRecorder()

			h.CreateShop(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCatalogHandler_CreateProduct_DefaultsToAvailable(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	var created *catalog.Product
	repo := &mockCatalogRepository{
		createProductFunc: func(ctx context.Context, product *catalog.Product) error {
			created = product
			return nil
		},
	}
	h := NewCatalogHandler(repo)

	body := `{"name":"Смартфон","category_id":"` + uuid.Must(uuid.NewV4()).String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: userID}))
	rec := httptest.NewRecorder()

	h.CreateProduct(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, created)
	assert.True(t, created.IsAvailable)
}

func TestCatalogHandler_CreateProductInfo_WithAttributes(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	var savedAttrs catalog.Attributes
	repo := &mockCatalogRepository{
		createInfoFunc: func(ctx context.Context, info *catalog.ProductInfo) error {
			info.ID = uuid.Must(uuid.NewV4())
			return nil
		},
		saveAttributesFunc: func(ctx context.Context, infoID, gotUserID uuid.UUID, attrs catalog.Attributes) error {
			assert.Equal(t, userID, gotUserID)
			savedAttrs = attrs
			return nil
		},
	}
	h := NewCatalogHandler(repo)

	body := `{
		"product_id": "` + uuid.Must(uuid.NewV4()).String() + `",
		"model": "X-100",
		"price": "150.50",
		"price_rrc": "180.00",
		"attributes": {"kind": "phone", "screen_size": 6.1, "resolution": "2400x1080", "internal_memory": 256, "color": "black"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/products/info", strings.NewReader(body))
	req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: userID}))
	rec := httptest.NewRecorder()

	h.CreateProductInfo(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	phone, ok := savedAttrs.(catalog.Phone)
	require.True(t, ok, "expected phone attributes, got %T", savedAttrs)
	assert.Equal(t, 256, phone.InternalMemory)
	assert.Equal(t, "black", phone.Color)
}

func TestCatalogHandler_GetProduct_IncludesAttributes(t *testing.T) {
	productID := uuid.Must(uuid.NewV4())
	infoID := uuid.Must(uuid.NewV4())

	repo := &mockCatalogRepository{
		getProductFunc: func(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
			assert.Equal(t, productID, id)
			return &catalog.Product{ID: id, Name: "Смартфон", IsAvailable: true}, nil
		},
		infosByProductFunc: func(ctx context.Context, gotProductID uuid.UUID) ([]catalog.ProductInfo, error) {
			return []catalog.ProductInfo{{ID: infoID, Model: "X-100", ProductID: gotProductID}}, nil
		},
		attributesForInfoFunc: func(ctx context.Context, gotInfoID uuid.UUID) (catalog.Attributes, error) {
			assert.Equal(t, infoID, gotInfoID)
			return catalog.Phone{Color: "black", InternalMemory: 256}, nil
		},
	}
	h := NewCatalogHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", productID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.GetProduct(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Name  string `json:"name"`
		Infos []struct {
			Model      string `json:"model"`
			Attributes struct {
				Color          string `json:"color"`
				InternalMemory int    `json:"internal_memory"`
			} `json:"attributes"`
		} `json:"product_infos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Смартфон", resp.Name)
	require.Len(t, resp.Infos, 1)
	assert.Equal(t, "X-100", resp.Infos[0].Model)
	assert.Equal(t, "black", resp.Infos[0].Attributes.Color)
	assert.Equal(t, 256, resp.Infos[0].Attributes.InternalMemory)
}

func TestDecodeAttributes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind catalog.AttributeKind
		wantErr  bool
	}{
		{name: "phone", raw: `{"kind":"phone","screen_size":6.1,"color":"black"}`, wantKind: catalog.KindPhone},
		{name: "television", raw: `{"kind":"television","smart_tv":true}`, wantKind: catalog.KindTelevision},
		{name: "flash_drive", raw: `{"kind":"flash_drive","capacity":64}`, wantKind: catalog.KindFlashDrive},
		{name: "unknown_kind", raw: `{"kind":"fridge"}`, wantErr: true},
		{name: "not_an_object", raw: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := decodeAttributes(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, attrs.Kind())
		})
	}
}
