package dto

import (
	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/sale"
)

// CreateSaleRequest is one sale line as submitted by the POS client.
type CreateSaleRequest struct {
	ProductID    string          `json:"productId" binding:"required"`
	Quantity     types.Quantity  `json:"quantity" binding:"required"`
	SaleUnitType string          `json:"saleUnitType"`
	PackQuantity *types.Quantity `json:"packQuantity"`
	UnitPrice    types.Money     `json:"unitPrice" binding:"required"`
	TotalPrice   types.Money     `json:"totalPrice" binding:"required"`

	CustomerName         *string      `json:"customerName"`
	PaymentMethod        string       `json:"paymentMethod" binding:"required"`
	AmountPaid           *types.Money `json:"amountPaid"`
	PartialPaymentMethod *string      `json:"partialPaymentMethod"`
	Notes                *string      `json:"notes"`
	ClientSaleID         *string      `json:"clientSaleId"`
}

// ToInput converts the request to a service input.
func (r CreateSaleRequest) ToInput() (sale.CreateInput, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return sale.CreateInput{}, apperror.NewValidation("invalid productId format")
	}
	return sale.CreateInput{
		ProductID:            productID,
		Quantity:             r.Quantity,
		SaleUnitType:         r.SaleUnitType,
		PackQuantity:         r.PackQuantity,
		UnitPrice:            r.UnitPrice,
		TotalPrice:           r.TotalPrice,
		CustomerName:         r.CustomerName,
		PaymentMethod:        r.PaymentMethod,
		AmountPaid:           r.AmountPaid,
		PartialPaymentMethod: r.PartialPaymentMethod,
		Notes:                r.Notes,
		ClientSaleID:         r.ClientSaleID,
	}, nil
}

// BulkSaleRequest submits several sale lines committed independently.
type BulkSaleRequest struct {
	Sales []CreateSaleRequest `json:"sales" binding:"required,min=1"`
}

// BulkSaleResponse reports the lines committed before the first failure.
type BulkSaleResponse struct {
	Created []sale.Sale `json:"created"`
	Count   int         `json:"count"`
}

// CreateReturnRequest is the payload for a customer return.
type CreateReturnRequest struct {
	SaleID           string         `json:"saleId" binding:"required"`
	QuantityReturned types.Quantity `json:"quantityReturned" binding:"required"`
	RefundAmount     types.Money    `json:"refundAmount"`
	RefundMethod     string         `json:"refundMethod" binding:"required"`
	Reason           *string        `json:"reason"`
	Restock          bool           `json:"restock"`
}

// ToInput converts the request to a service input.
func (r CreateReturnRequest) ToInput() (sale.ReturnInput, error) {
	saleID, err := id.Parse(r.SaleID)
	if err != nil {
		return sale.ReturnInput{}, apperror.NewValidation("invalid saleId format")
	}
	return sale.ReturnInput{
		SaleID:           saleID,
		QuantityReturned: r.QuantityReturned,
		RefundAmount:     r.RefundAmount,
		RefundMethod:     r.RefundMethod,
		Reason:           r.Reason,
		Restock:          r.Restock,
	}, nil
}
