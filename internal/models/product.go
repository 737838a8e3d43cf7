package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status es el estado de disponibilidad de un producto
type Status string

const (
	StatusAvailable         Status = "Available"
	StatusUnavailable       Status = "Unavailable"
	StatusWaitlistAvailable Status = "Waitlist Available"
)

// Statuses lista los estados válidos en orden de declaración
var Statuses = []Status{StatusAvailable, StatusUnavailable, StatusWaitlistAvailable}

// Validate verifica que el estado pertenezca a la enumeración
func (s Status) Validate() error {
	for _, v := range Statuses {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("%s is not a valid status", string(s))
}

// ProductImage es una imagen asociada al producto
type ProductImage struct {
	URL string `json:"url" bson:"url" validate:"required,httpurl"`
	Alt string `json:"alt" bson:"alt"`
}

// Product representa un producto en el catálogo
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
	SKU         string             `json:"sku" bson:"sku"`
	Status      Status             `json:"status" bson:"status"`
	Tags        []string           `json:"tags" bson:"tags"`
	Stock       int                `json:"stock" bson:"stock"`
	Images      []ProductImage     `json:"images" bson:"images"`
	Category    string             `json:"category,omitempty" bson:"category,omitempty"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductInput representa el cuerpo de creación de un producto.
// Price es un puntero para distinguir un precio ausente de un precio 0.
type ProductInput struct {
	Name        string         `json:"name" validate:"required,max=100"`
	Description string         `json:"description" validate:"required,max=500"`
	Price       *float64       `json:"price" validate:"required,gt=0,lt=100"`
	SKU         string         `json:"sku" validate:"required,sku"`
	Status      Status         `json:"status" validate:"required,enum"`
	Tags        []string       `json:"tags"`
	Stock       int            `json:"stock" validate:"min=0"`
	Images      []ProductImage `json:"images" validate:"dive"`
	Category    string         `json:"category"`
	IsActive    *bool          `json:"isActive"`
}

// ProductUpdate representa los campos actualizables de un producto.
// Los campos nil no se modifican.
type ProductUpdate struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string        `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Price       *float64       `json:"price,omitempty" validate:"omitempty,gt=0,lt=100"`
	SKU         *string        `json:"sku,omitempty" validate:"omitempty,min=1,sku"`
	Status      *Status        `json:"status,omitempty" validate:"omitempty,enum"`
	Tags        []string       `json:"tags,omitempty"`
	Stock       *int           `json:"stock,omitempty" validate:"omitempty,min=0"`
	Images      []ProductImage `json:"images,omitempty" validate:"omitempty,dive"`
	Category    *string        `json:"category,omitempty"`
	IsActive    *bool          `json:"isActive,omitempty"`
}

// Page es una página de resultados con sus metadatos
type Page struct {
	Products    []*Product `json:"products"`
	TotalPages  int64      `json:"totalPages"`
	CurrentPage int64      `json:"currentPage"`
	Total       int64      `json:"total"`
	HasNextPage bool       `json:"hasNextPage"`
	HasPrevPage bool       `json:"hasPrevPage"`
}

type StatusCount struct {
	Status Status `json:"status" bson:"_id"`
	Count  int64  `json:"count" bson:"count"`
}

// Stats agrega métricas sobre toda la colección
type Stats struct {
	TotalProducts   int64         `json:"totalProducts" bson:"totalProducts"`
	AveragePrice    float64       `json:"averagePrice" bson:"averagePrice"`
	TotalStock      int64         `json:"totalStock" bson:"totalStock"`
	LowStockCount   int64         `json:"lowStockCount" bson:"lowStockCount"`
	StatusBreakdown []StatusCount `json:"statusBreakdown" bson:"-"`
}

// StockUpdate es un elemento de una actualización masiva de stock.
// Stock nil significa que el elemento no trae stock.
type StockUpdate struct {
	ID    string `json:"id"`
	Stock *int   `json:"stock"`
}

// BulkSkip describe un elemento descartado en una operación masiva
type BulkSkip struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type BulkUpdateResult struct {
	Matched  int64      `json:"matchedCount"`
	Modified int64      `json:"modifiedCount"`
	Skipped  []BulkSkip `json:"skipped"`
}

type BulkDeleteResult struct {
	Deleted int64      `json:"deletedCount"`
	Skipped []BulkSkip `json:"skipped"`
}
