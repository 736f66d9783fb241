package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
)

// stubCatalogService implements CatalogService with overridable behavior
// per test. Unset operations fail the test if reached.
type stubCatalogService struct {
	t *testing.T

	createCategoryFn func(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	getCategoryFn    func(ctx context.Context, id uuid.UUID) (*Category, error)
	listCategoriesFn func(ctx context.Context, skip, limit int) ([]Category, error)
	updateCategoryFn func(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*Category, error)
	deleteCategoryFn func(ctx context.Context, id uuid.UUID) error
	createProductFn  func(ctx context.Context, req CreateProductRequest) (*Product, error)
	getProductFn     func(ctx context.Context, id uuid.UUID) (*Product, error)
	listProductsFn   func(ctx context.Context, skip, limit int, categoryID *uuid.UUID) ([]Product, error)
	updateProductFn  func(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*Product, error)
	deleteProductFn  func(ctx context.Context, id uuid.UUID) error
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	if s.createCategoryFn == nil {
		s.t.Fatal("unexpected CreateCategory call")
	}
	return s.createCategoryFn(ctx, req)
}

func (s *stubCatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	if s.getCategoryFn == nil {
		s.t.Fatal("unexpected GetCategory call")
	}
	return s.getCategoryFn(ctx, id)
}

func (s *stubCatalogService) ListCategories(ctx context.Context, skip, limit int) ([]Category, error) {
	if s.listCategoriesFn == nil {
		s.t.Fatal("unexpected ListCategories call")
	}
	return s.listCategoriesFn(ctx, skip, limit)
}

func (s *stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*Category, error) {
	if s.updateCategoryFn == nil {
		s.t.Fatal("unexpected UpdateCategory call")
	}
	return s.updateCategoryFn(ctx, id, req)
}

func (s *stubCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if s.deleteCategoryFn == nil {
		s.t.Fatal("unexpected DeleteCategory call")
	}
	return s.deleteCategoryFn(ctx, id)
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if s.createProductFn == nil {
		s.t.Fatal("unexpected CreateProduct call")
	}
	return s.createProductFn(ctx, req)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	if s.getProductFn == nil {
		s.t.Fatal("unexpected GetProduct call")
	}
	return s.getProductFn(ctx, id)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, skip, limit int, categoryID *uuid.UUID) ([]Product, error) {
	if s.listProductsFn == nil {
		s.t.Fatal("unexpected ListProducts call")
	}
	return s.listProductsFn(ctx, skip, limit, categoryID)
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*Product, error) {
	if s.updateProductFn == nil {
		s.t.Fatal("unexpected UpdateProduct call")
	}
	return s.updateProductFn(ctx, id, req)
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if s.deleteProductFn == nil {
		s.t.Fatal("unexpected DeleteProduct call")
	}
	return s.deleteProductFn(ctx, id)
}

func newCatalogRouter(t *testing.T, service CatalogService, codec *auth.TokenCodec) http.Handler {
	t.Helper()
	h := NewCatalogHandlers(service)
	r := chi.NewRouter()
	r.Route("/categories", func(r chi.Router) { h.RegisterCategoryRoutes(r, codec) })
	r.Route("/products", func(r chi.Router) { h.RegisterProductRoutes(r, codec) })
	return r
}

func bearer(t *testing.T, codec *auth.TokenCodec, superuser bool) string {
	t.Helper()
	token, err := codec.IssueSession(uuid.New(), superuser, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestCatalogWritesForbiddenForPlainUsers(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret")
	router := newCatalogRouter(t, &stubCatalogService{t: t}, codec)
	token := bearer(t, codec, false)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/categories/"},
		{http.MethodPut, "/categories/" + uuid.NewString()},
		{http.MethodDelete, "/categories/" + uuid.NewString()},
		{http.MethodPost, "/products/"},
		{http.MethodPut, "/products/" + uuid.NewString()},
		{http.MethodDelete, "/products/" + uuid.NewString()},
	} {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(`{"name":"x"}`))
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.method+" "+tc.path)
	}
}

func TestCatalogWritesUnauthorizedWithoutToken(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret")
	router := newCatalogRouter(t, &stubCatalogService{t: t}, codec)

	req := httptest.NewRequest(http.MethodPost, "/categories/", bytes.NewBufferString(`{"name":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalogReadsArePublic(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret")
	service := &stubCatalogService{
		t: t,
		listCategoriesFn: func(ctx context.Context, skip, limit int) ([]Category, error) {
			return []Category{{ID: uuid.New(), Name: "books"}}, nil
		},
	}
	router := newCatalogRouter(t, service, codec)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "books", got[0].Name)
}

func TestCreateProductUnknownCategory(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret")
	service := &stubCatalogService{
		t: t,
		createProductFn: func(ctx context.Context, req CreateProductRequest) (*Product, error) {
			return nil, apperror.NewNotFoundError("category not found", nil)
		},
	}
	router := newCatalogRouter(t, service, codec)

	body := `{"name":"widget","category_id":"` + uuid.NewString() + `","price":9.99,"stock":3}`
	req := httptest.NewRequest(http.MethodPost, "/products/", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, codec, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.ErrorType)
	assert.Equal(t, "category not found", resp.Message)
}

func TestCreateProductValidation(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret")
	router := newCatalogRouter(t, &stubCatalogService{t: t}, codec)
	token := bearer(t, codec, true)

	cases := []string{
		`{"category_id":"` + uuid.NewString() + `","price":1}`, // no name
		`{"name":"widget","price":1}`,                          // no category
		`{"name":"widget","category_id":"not-a-uuid","price":1}`,
		`{"name":"widget","category_id":"` + uuid.NewString() + `","price":-1}`,
		`{"name":"widget","category_id":"` + uuid.NewString() + `","price":1,"discount":150}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/products/", bytes.NewBufferString(body))
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestListProductsCategoryFilter(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret")
	want := uuid.New()
	var got *uuid.UUID
	service := &stubCatalogService{
		t: t,
		listProductsFn: func(ctx context.Context, skip, limit int, categoryID *uuid.UUID) ([]Product, error) {
			got = categoryID
			return []Product{}, nil
		},
	}
	router := newCatalogRouter(t, service, codec)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/?category_id="+want.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestListProductsBadCategoryFilter(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret")
	router := newCatalogRouter(t, &stubCatalogService{t: t}, codec)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/?category_id=garbage", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCategoryWithProductsConflict(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret")
	service := &stubCatalogService{
		t: t,
		deleteCategoryFn: func(ctx context.Context, id uuid.UUID) error {
			return apperror.NewConflictError("category still has products", nil)
		},
	}
	router := newCatalogRouter(t, service, codec)

	req := httptest.NewRequest(http.MethodDelete, "/categories/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", bearer(t, codec, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conflict", resp.ErrorType)
}
