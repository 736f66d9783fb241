package catalog

import "time"

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// UpdateCategoryRequest renames a category.
type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CreateProductRequest is the payload for creating a product.
type CreateProductRequest struct {
	Name             string     `json:"name" validate:"required,min=1,max=255"`
	CategoryID       string     `json:"category_id" validate:"required,uuid"`
	Description      *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price            float64    `json:"price" validate:"min=0"`
	Stock            int        `json:"stock" validate:"min=0"`
	IsActive         *bool      `json:"is_active,omitempty"`
	Discount         *float64   `json:"discount,omitempty" validate:"omitempty,min=0,max=100"`
	DiscountStartsAt *time.Time `json:"discount_starts_at,omitempty"`
	DiscountEndsAt   *time.Time `json:"discount_ends_at,omitempty"`
}

// UpdateProductRequest is the partial-update payload for a product. Only
// fields present in the request are applied.
type UpdateProductRequest struct {
	Name             *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	CategoryID       *string    `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Description      *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price            *float64   `json:"price,omitempty" validate:"omitempty,min=0"`
	Stock            *int       `json:"stock,omitempty" validate:"omitempty,min=0"`
	IsActive         *bool      `json:"is_active,omitempty"`
	Discount         *float64   `json:"discount,omitempty" validate:"omitempty,min=0,max=100"`
	DiscountStartsAt *time.Time `json:"discount_starts_at,omitempty"`
	DiscountEndsAt   *time.Time `json:"discount_ends_at,omitempty"`
}

// hasUpdates reports whether any field is present in the payload.
func (r *UpdateProductRequest) hasUpdates() bool {
	return r.Name != nil || r.CategoryID != nil || r.Description != nil ||
		r.Price != nil || r.Stock != nil || r.IsActive != nil ||
		r.Discount != nil || r.DiscountStartsAt != nil || r.DiscountEndsAt != nil
}
