package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/storefront-go/apperror"
)

func TestBuildProductUpdateOrderingAndPlaceholders(t *testing.T) {
	price := 19.99
	stock := 7
	name := "  widget  "
	req := &UpdateProductRequest{Name: &name, Price: &price, Stock: &stock}

	clauses, args, err := buildProductUpdate(req)
	require.NoError(t, err)

	assert.Equal(t, []string{"name = $1", "price = $2", "stock = $3"}, clauses)
	require.Len(t, args, 3)
	assert.Equal(t, "widget", args[0])
	assert.Equal(t, 19.99, args[1])
	assert.Equal(t, 7, args[2])
}

func TestBuildProductUpdateCategoryID(t *testing.T) {
	id := uuid.New()
	s := id.String()
	req := &UpdateProductRequest{CategoryID: &s}

	clauses, args, err := buildProductUpdate(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"category_id = $1"}, clauses)
	assert.Equal(t, id, args[0])
}

func TestBuildProductUpdateBadCategoryID(t *testing.T) {
	bad := "not-a-uuid"
	req := &UpdateProductRequest{CategoryID: &bad}

	_, _, err := buildProductUpdate(req)
	require.Error(t, err)
	assert.True(t, apperror.IsValidationError(err))
}

func TestUpdateProductRequestHasUpdates(t *testing.T) {
	assert.False(t, (&UpdateProductRequest{}).hasUpdates())
	active := false
	assert.True(t, (&UpdateProductRequest{IsActive: &active}).hasUpdates())
}
