package dto

import (
	"time"

	"kardex/internal/core/types"
	"kardex/internal/domain/product"
)

// CreateProductRequest is the payload for adding a catalog entry.
// Quantities and prices bind from JSON numbers or strings; they stay
// decimal end to end.
type CreateProductRequest struct {
	SKU         string  `json:"sku" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Unit        string  `json:"unit"`
	PackSize    *int    `json:"packSize"`
	Category    *string `json:"category"`

	ExpiryDate *time.Time `json:"expiryDate"`

	CostPrice        *types.Money `json:"costPrice"`
	PackCostPrice    *types.Money `json:"packCostPrice"`
	SellingPrice     *types.Money `json:"sellingPrice"`
	PackSellingPrice *types.Money `json:"packSellingPrice"`

	InitialStock    *types.Quantity `json:"initialStock"`
	InitialLocation *string         `json:"initialLocation"`
}

// ToInput converts the request to a service input.
func (r CreateProductRequest) ToInput() product.CreateInput {
	return product.CreateInput{
		SKU:              r.SKU,
		Name:             r.Name,
		Description:      r.Description,
		Unit:             r.Unit,
		PackSize:         r.PackSize,
		Category:         r.Category,
		ExpiryDate:       r.ExpiryDate,
		CostPrice:        r.CostPrice,
		PackCostPrice:    r.PackCostPrice,
		SellingPrice:     r.SellingPrice,
		PackSellingPrice: r.PackSellingPrice,
		InitialStock:     r.InitialStock,
		InitialLocation:  r.InitialLocation,
	}
}

// UpdateProductRequest is a partial update; absent fields stay unchanged.
type UpdateProductRequest struct {
	SKU         *string `json:"sku"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Unit        *string `json:"unit"`
	PackSize    *int    `json:"packSize"`
	Category    *string `json:"category"`

	ExpiryDate *time.Time `json:"expiryDate"`

	CostPrice        *types.Money `json:"costPrice"`
	PackCostPrice    *types.Money `json:"packCostPrice"`
	SellingPrice     *types.Money `json:"sellingPrice"`
	PackSellingPrice *types.Money `json:"packSellingPrice"`
}

// ToInput converts the request to a service input.
func (r UpdateProductRequest) ToInput() product.UpdateInput {
	return product.UpdateInput{
		SKU:              r.SKU,
		Name:             r.Name,
		Description:      r.Description,
		Unit:             r.Unit,
		PackSize:         r.PackSize,
		Category:         r.Category,
		ExpiryDate:       r.ExpiryDate,
		CostPrice:        r.CostPrice,
		PackCostPrice:    r.PackCostPrice,
		SellingPrice:     r.SellingPrice,
		PackSellingPrice: r.PackSellingPrice,
	}
}
