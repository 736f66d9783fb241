// Package catalog implements the product directory: categories and the
// products beneath them. Reads are public; writes require a superuser
// session.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products under a unique name.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a sellable item. Discount fields describe an optional
// time-bounded percentage discount; pricing math is left to callers.
type Product struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	CategoryID       uuid.UUID  `json:"category_id"`
	Description      *string    `json:"description,omitempty"`
	Price            float64    `json:"price"`
	Stock            int        `json:"stock"`
	IsActive         bool       `json:"is_active"`
	Discount         *float64   `json:"discount,omitempty"`
	DiscountStartsAt *time.Time `json:"discount_starts_at,omitempty"`
	DiscountEndsAt   *time.Time `json:"discount_ends_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
