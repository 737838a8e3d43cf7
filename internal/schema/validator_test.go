package schema_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-api/internal/models"
	"product-api/internal/schema"
)

func validInput() *models.ProductInput {
	price := 29.99
	return &models.ProductInput{
		Name:        "  Test Product ",
		Description: "Test Description",
		Price:       &price,
		SKU:         "test-001",
		Tags:        []string{" Test", "PRODUCT", "test"},
		Stock:       100,
		Images: []models.ProductImage{
			{URL: "https://example.com/image1.jpg", Alt: "Image 1"},
		},
		Category: " Kitchen ",
	}
}

func validationErr(t *testing.T, err error) *schema.ValidationError {
	t.Helper()
	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr
}

func TestNormalizeInput(t *testing.T) {
	in := validInput()
	schema.NormalizeInput(in)

	assert.Equal(t, "Test Product", in.Name)
	assert.Equal(t, "TEST-001", in.SKU)
	assert.Equal(t, "kitchen", in.Category)
	assert.Equal(t, []string{"test", "product", "test"}, in.Tags)
	assert.Equal(t, models.StatusAvailable, in.Status)

	p := schema.NewProduct(in)
	assert.True(t, p.IsActive)
	assert.Equal(t, in.Images, p.Images)
}

func TestValidate_ValidInput(t *testing.T) {
	v := schema.MustNewValidator()
	in := validInput()
	schema.NormalizeInput(in)

	assert.NoError(t, v.Validate(in))
}

func TestValidate_PriceBounds(t *testing.T) {
	v := schema.MustNewValidator()

	for _, price := range []float64{0, -1, 100, 150.5} {
		in := validInput()
		in.Price = &price
		schema.NormalizeInput(in)

		verr := validationErr(t, v.Validate(in))
		assert.Equal(t, "price", verr.Field, "price %v", price)
		assert.Equal(t, "Price of small product must be between $0.01 and $100", verr.Message, "price %v", price)
	}

	for _, price := range []float64{0.01, 50, 99.99} {
		in := validInput()
		in.Price = &price
		schema.NormalizeInput(in)
		assert.NoError(t, v.Validate(in), "price %v", price)
	}
}

func TestValidate_MissingPrice(t *testing.T) {
	v := schema.MustNewValidator()
	in := validInput()
	in.Price = nil
	schema.NormalizeInput(in)

	verr := validationErr(t, v.Validate(in))
	assert.Equal(t, "price", verr.Field)
	assert.Equal(t, "Product price is required", verr.Message)
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	v := schema.MustNewValidator()
	in := &models.ProductInput{Description: "Invalid product"}
	schema.NormalizeInput(in)

	err := v.Validate(in)
	verr := validationErr(t, err)
	assert.Equal(t, "name", verr.Field)
	assert.Contains(t, err.Error(), "required")
	assert.GreaterOrEqual(t, len(verr.Errors), 3)
}

func TestValidate_NameTooLong(t *testing.T) {
	v := schema.MustNewValidator()
	in := validInput()
	in.Name = strings.Repeat("a", 101)
	schema.NormalizeInput(in)

	verr := validationErr(t, v.Validate(in))
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, "Name cannot exceed 100 characters", verr.Message)
}

func TestValidate_SKUPattern(t *testing.T) {
	v := schema.MustNewValidator()
	in := validInput()
	in.SKU = "bad sku!"
	schema.NormalizeInput(in)

	verr := validationErr(t, v.Validate(in))
	assert.Equal(t, "sku", verr.Field)
	assert.Equal(t, "SKU can only contain letters, numbers, and hyphens", verr.Message)
}

func TestValidate_SKUSurroundingSpaces(t *testing.T) {
	v := schema.MustNewValidator()
	in := validInput()
	in.SKU = " ab-1 "
	schema.NormalizeInput(in)

	assert.Equal(t, " AB-1 ", in.SKU)
	verr := validationErr(t, v.Validate(in))
	assert.Equal(t, "sku", verr.Field)
}

func TestValidate_Status(t *testing.T) {
	v := schema.MustNewValidator()
	in := validInput()
	in.Status = "Sold Out"
	schema.NormalizeInput(in)

	verr := validationErr(t, v.Validate(in))
	assert.Equal(t, "status", verr.Field)
	assert.Equal(t, "Sold Out is not a valid status", verr.Message)

	in.Status = models.StatusWaitlistAvailable
	assert.NoError(t, v.Validate(in))
}

func TestValidate_ImageURL(t *testing.T) {
	v := schema.MustNewValidator()
	in := validInput()
	in.Images = append(in.Images, models.ProductImage{URL: "ftp://example.com/a.jpg"})
	schema.NormalizeInput(in)

	verr := validationErr(t, v.Validate(in))
	assert.Equal(t, "images[1].url", verr.Field)
	assert.Equal(t, "Please provide a valid URL", verr.Message)
}

func TestValidate_NegativeStock(t *testing.T) {
	v := schema.MustNewValidator()
	in := validInput()
	in.Stock = -5
	schema.NormalizeInput(in)

	verr := validationErr(t, v.Validate(in))
	assert.Equal(t, "stock", verr.Field)
	assert.Equal(t, "Stock cannot be negative", verr.Message)
}

func TestValidate_PartialUpdate(t *testing.T) {
	v := schema.MustNewValidator()

	price := 39.99
	u := &models.ProductUpdate{Price: &price}
	schema.NormalizeUpdate(u)
	assert.NoError(t, v.Validate(u))
	assert.Equal(t, map[string]any{"price": 39.99}, map[string]any(schema.UpdateFields(u)))

	zero := 0.0
	u = &models.ProductUpdate{Price: &zero}
	verr := validationErr(t, v.Validate(u))
	assert.Equal(t, "price", verr.Field)

	empty := "   "
	u = &models.ProductUpdate{Name: &empty}
	schema.NormalizeUpdate(u)
	verr = validationErr(t, v.Validate(u))
	assert.Equal(t, "name", verr.Field)

	sku := "abc-9"
	u = &models.ProductUpdate{SKU: &sku}
	schema.NormalizeUpdate(u)
	assert.NoError(t, v.Validate(u))
	assert.Equal(t, "ABC-9", *u.SKU)

	stock := -1
	u = &models.ProductUpdate{Stock: &stock}
	verr = validationErr(t, v.Validate(u))
	assert.Equal(t, "stock", verr.Field)
}

func TestIndexes(t *testing.T) {
	idx := schema.Indexes()
	names := make([]string, 0, len(idx))
	for _, m := range idx {
		names = append(names, *m.Options.Name)
	}

	assert.ElementsMatch(t, []string{
		"name_1", "sku_1", "isActive_1", "status_1_isActive_1", "name_text_description_text",
	}, names)
}
