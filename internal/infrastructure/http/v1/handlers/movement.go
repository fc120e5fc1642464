package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/apperror"
	"kardex/internal/domain/ledger"
	"kardex/internal/infrastructure/http/v1/dto"
)

// MovementHandler handles stock movement endpoints.
type MovementHandler struct {
	*BaseHandler
	stock *ledger.Service
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(stock *ledger.Service) *MovementHandler {
	return &MovementHandler{
		BaseHandler: NewBaseHandler(),
		stock:       stock,
	}
}

// Record handles POST /products/:id/movements
func (h *MovementHandler) Record(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.stock.RecordMovement(c.Request.Context(), scope, req.ToInput(productID))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, created)
}

// List handles GET /products/:id/movements
func (h *MovementHandler) List(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var query dto.MovementQuery
	if !h.BindQuery(c, &query) {
		return
	}

	items, err := h.stock.ListMovements(c.Request.Context(), scope, productID, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}

// Batches handles GET /products/:id/batches
//
// includeNullExpiry defaults to true; pass false to drop batches without
// an expiry date from the listing.
func (h *MovementHandler) Batches(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	includeNullExpiry, err := strconv.ParseBool(c.DefaultQuery("includeNullExpiry", "true"))
	if err != nil {
		h.Error(c, apperror.NewValidation("includeNullExpiry must be a boolean"))
		return
	}

	balances, err := h.stock.BatchBalances(c.Request.Context(), scope, productID, includeNullExpiry)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: balances, Count: len(balances)})
}

// Stock handles GET /products/:id/stock
func (h *MovementHandler) Stock(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	current, err := h.stock.CurrentStock(c.Request.Context(), scope, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockResponse{ProductID: productID.String(), CurrentStock: current})
}
