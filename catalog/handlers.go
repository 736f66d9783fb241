package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogHandlers handles HTTP requests for categories and products.
type CatalogHandlers struct {
	service  CatalogService
	validate *validator.Validate
}

// NewCatalogHandlers creates a new CatalogHandlers instance.
func NewCatalogHandlers(service CatalogService) *CatalogHandlers {
	return &CatalogHandlers{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterCategoryRoutes mounts the category routes: public reads, writes
// behind a superuser session.
func (h *CatalogHandlers) RegisterCategoryRoutes(r chi.Router, codec *auth.TokenCodec) {
	r.Get("/", h.handleListCategories)
	r.Get("/{id}", h.handleGetCategory)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(codec), auth.RequireSuperuser())
		r.Post("/", h.handleCreateCategory)
		r.Put("/{id}", h.handleUpdateCategory)
		r.Delete("/{id}", h.handleDeleteCategory)
	})
}

// RegisterProductRoutes mounts the product routes: public reads, writes
// behind a superuser session.
func (h *CatalogHandlers) RegisterProductRoutes(r chi.Router, codec *auth.TokenCodec) {
	r.Get("/", h.handleListProducts)
	r.Get("/{id}", h.handleGetProduct)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(codec), auth.RequireSuperuser())
		r.Post("/", h.handleCreateProduct)
		r.Put("/{id}", h.handleUpdateProduct)
		r.Delete("/{id}", h.handleDeleteProduct)
	})
}

// handleListCategories godoc
// @Summary List Categories
// @Tags Catalog
// @Produce json
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(20)
// @Success 200 {array} catalog.Category
// @Router /categories [get]
func (h *CatalogHandlers) handleListCategories(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	categories, err := h.service.ListCategories(r.Context(), skip, limit)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, categories)
}

// handleGetCategory godoc
// @Summary Get Category
// @Tags Catalog
// @Produce json
// @Param id path string true "Category id"
// @Success 200 {object} catalog.Category
// @Failure 404 {object} apperror.ErrorResponse
// @Router /categories/{id} [get]
func (h *CatalogHandlers) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, category)
}

// handleCreateCategory godoc
// @Summary Create Category
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param categoryBody body catalog.CreateCategoryRequest true "Category"
// @Success 201 {object} catalog.Category
// @Failure 409 {object} apperror.ErrorResponse "Name already exists"
// @Router /categories [post]
func (h *CatalogHandlers) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := h.decode(r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	category, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusCreated, category)
}

// handleUpdateCategory godoc
// @Summary Rename Category
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category id"
// @Param categoryBody body catalog.UpdateCategoryRequest true "New name"
// @Success 200 {object} catalog.Category
// @Router /categories/{id} [put]
func (h *CatalogHandlers) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	var req UpdateCategoryRequest
	if err := h.decode(r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), id, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, category)
}

// handleDeleteCategory godoc
// @Summary Delete Category
// @Tags Catalog
// @Security BearerAuth
// @Param id path string true "Category id"
// @Success 204 "Category deleted"
// @Failure 409 {object} apperror.ErrorResponse "Category still has products"
// @Router /categories/{id} [delete]
func (h *CatalogHandlers) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListProducts godoc
// @Summary List Products
// @Tags Catalog
// @Produce json
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(20)
// @Param category_id query string false "Restrict to one category"
// @Success 200 {array} catalog.Product
// @Router /products [get]
func (h *CatalogHandlers) handleListProducts(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	var categoryID *uuid.UUID
	if v := r.URL.Query().Get("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			auth.WriteError(w, r, apperror.NewValidationError("category_id must be a valid UUID", err))
			return
		}
		categoryID = &id
	}

	products, err := h.service.ListProducts(r.Context(), skip, limit, categoryID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, products)
}

// handleGetProduct godoc
// @Summary Get Product
// @Tags Catalog
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} catalog.Product
// @Failure 404 {object} apperror.ErrorResponse
// @Router /products/{id} [get]
func (h *CatalogHandlers) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, product)
}

// handleCreateProduct godoc
// @Summary Create Product
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param productBody body catalog.CreateProductRequest true "Product"
// @Success 201 {object} catalog.Product
// @Failure 404 {object} apperror.ErrorResponse "Referenced category does not exist"
// @Router /products [post]
func (h *CatalogHandlers) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := h.decode(r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusCreated, product)
}

// handleUpdateProduct godoc
// @Summary Update Product
// @Description Applies only the fields present in the payload.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product id"
// @Param productBody body catalog.UpdateProductRequest true "Fields to update"
// @Success 200 {object} catalog.Product
// @Router /products/{id} [put]
func (h *CatalogHandlers) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	var req UpdateProductRequest
	if err := h.decode(r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, product)
}

// handleDeleteProduct godoc
// @Summary Delete Product
// @Tags Catalog
// @Security BearerAuth
// @Param id path string true "Product id"
// @Success 204 "Product deleted"
// @Router /products/{id} [delete]
func (h *CatalogHandlers) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandlers) decode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewBadRequestError("invalid request body: "+err.Error(), err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperror.NewValidationError("invalid payload", err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperror.NewValidationError("id must be a valid UUID", err)
	}
	return id, nil
}

// pagination reads skip/limit query parameters, clamping limit to
// [1, maxPageSize] with a default of defaultPageSize.
func pagination(r *http.Request) (skip, limit int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			skip = n
		}
	}
	return skip, limit
}
