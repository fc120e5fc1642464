package handlers

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/sale"
	"kardex/internal/infrastructure/http/v1/dto"
)

// ReturnHandler handles sale return endpoints.
type ReturnHandler struct {
	*BaseHandler
	sales *sale.Service
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(sales *sale.Service) *ReturnHandler {
	return &ReturnHandler{
		BaseHandler: NewBaseHandler(),
		sales:       sales,
	}
}

// Create handles POST /returns
func (h *ReturnHandler) Create(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.sales.CreateReturn(c.Request.Context(), scope, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, created)
}

// List handles GET /returns
func (h *ReturnHandler) List(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 50)

	items, err := h.sales.ListReturns(c.Request.Context(), scope, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}

// Summary handles GET /returns/summary
func (h *ReturnHandler) Summary(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	summary, err := h.sales.SummarizeReturns(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// ForSale handles GET /sales/:id/returns
func (h *ReturnHandler) ForSale(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	items, err := h.sales.ReturnsForSale(c.Request.Context(), scope, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}
