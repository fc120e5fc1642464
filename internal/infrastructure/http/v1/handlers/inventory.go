package handlers

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/core/id"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/reports"
)

// InventoryHandler handles branch-level inventory endpoints: expiry
// write-off, analytics and the movement log.
type InventoryHandler struct {
	*BaseHandler
	stock   *ledger.Service
	reports *reports.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(stock *ledger.Service, rep *reports.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: NewBaseHandler(),
		stock:       stock,
		reports:     rep,
	}
}

type writeOffResponse struct {
	WrittenOff int `json:"writtenOff"`
}

// WriteOffExpired handles POST /inventory/write-off-expired
// An optional productId query narrows the sweep to one product.
func (h *InventoryHandler) WriteOffExpired(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	var productID *id.ID
	if raw := c.Query("productId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		productID = &parsed
	}

	count, err := h.stock.WriteOffExpired(c.Request.Context(), scope, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, writeOffResponse{WrittenOff: count})
}

// Analytics handles GET /inventory/analytics
func (h *InventoryHandler) Analytics(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	analytics, err := h.reports.Analytics(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, analytics)
}

// Movements handles GET /inventory/movements
func (h *InventoryHandler) Movements(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	filter := reports.MovementFilter{
		Days: h.ParseIntQuery(c, "days", 30),
	}
	if loc := c.Query("location"); loc != "" {
		filter.Location = &loc
	}
	if reason := c.Query("reason"); reason != "" {
		filter.Reason = &reason
	}

	entries, err := h.reports.Movements(c.Request.Context(), scope, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entries)
}
