package handlers

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/sale"
	"kardex/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale endpoints.
type SaleHandler struct {
	*BaseHandler
	sales *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(sales *sale.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: NewBaseHandler(),
		sales:       sales,
	}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.sales.Create(c.Request.Context(), scope, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, created)
}

// CreateBulk handles POST /sales/bulk
func (h *SaleHandler) CreateBulk(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.BulkSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	items := make([]sale.CreateInput, 0, len(req.Sales))
	for _, r := range req.Sales {
		in, err := r.ToInput()
		if err != nil {
			h.Error(c, err)
			return
		}
		items = append(items, in)
	}

	created, err := h.sales.CreateBulk(c.Request.Context(), scope, items)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.BulkSaleResponse{Created: created, Count: len(created)})
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	found, err := h.sales.Get(c.Request.Context(), scope, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, found)
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	items, err := h.sales.List(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}

// Reverse handles DELETE /sales/:id
func (h *SaleHandler) Reverse(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.sales.Reverse(c.Request.Context(), scope, saleID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "sale reversed")
}
