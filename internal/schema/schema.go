package schema

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"product-api/internal/models"
)

const (
	CollectionName = "products"

	// LowStockThreshold es el umbral usado por defecto para stock bajo
	LowStockThreshold = 10
)

// Indexes devuelve los índices que la colección de productos necesita
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().SetName("sku_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}},
			Options: options.Index().SetName("isActive_1"),
		},
		// Consultas combinadas por estado y activo
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index().SetName("status_1_isActive_1"),
		},
		// Búsqueda de texto
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("name_text_description_text"),
		},
	}
}

// NormalizeInput aplica los recortes, mayúsculas/minúsculas y valores por
// defecto del esquema a un producto nuevo
func NormalizeInput(in *models.ProductInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.SKU = NormalizeSKU(in.SKU)
	in.Category = NormalizeCategory(in.Category)
	in.Tags = NormalizeTags(in.Tags)
	in.Images = NormalizeImages(in.Images)
	if in.Status == "" {
		in.Status = models.StatusAvailable
	}
}

// NormalizeUpdate aplica las mismas reglas solo a los campos presentes
func NormalizeUpdate(u *models.ProductUpdate) {
	if u.Name != nil {
		v := strings.TrimSpace(*u.Name)
		u.Name = &v
	}
	if u.Description != nil {
		v := strings.TrimSpace(*u.Description)
		u.Description = &v
	}
	if u.SKU != nil {
		v := NormalizeSKU(*u.SKU)
		u.SKU = &v
	}
	if u.Category != nil {
		v := NormalizeCategory(*u.Category)
		u.Category = &v
	}
	if u.Tags != nil {
		u.Tags = NormalizeTags(u.Tags)
	}
	if u.Images != nil {
		u.Images = NormalizeImages(u.Images)
	}
}

// NormalizeSKU solo pasa a mayúsculas; los espacios no se recortan y el
// patrón del SKU los rechaza
func NormalizeSKU(sku string) string {
	return strings.ToUpper(sku)
}

func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// NormalizeTags conserva el orden y los duplicados
func NormalizeTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return out
}

func NormalizeImages(images []models.ProductImage) []models.ProductImage {
	out := make([]models.ProductImage, len(images))
	for i, img := range images {
		out[i] = models.ProductImage{
			URL: strings.TrimSpace(img.URL),
			Alt: img.Alt,
		}
	}
	return out
}

// NewProduct construye el documento a persistir a partir de una entrada
// ya normalizada y validada
func NewProduct(in *models.ProductInput) *models.Product {
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	var price float64
	if in.Price != nil {
		price = *in.Price
	}

	return &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		SKU:         in.SKU,
		Status:      in.Status,
		Tags:        in.Tags,
		Stock:       in.Stock,
		Images:      in.Images,
		Category:    in.Category,
		IsActive:    isActive,
	}
}

// UpdateFields convierte los campos presentes de una actualización en el
// documento de $set
func UpdateFields(u *models.ProductUpdate) bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.SKU != nil {
		set["sku"] = *u.SKU
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Tags != nil {
		set["tags"] = u.Tags
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Images != nil {
		set["images"] = u.Images
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.IsActive != nil {
		set["isActive"] = *u.IsActive
	}
	return set
}
