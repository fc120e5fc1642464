package handlers

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/credit"
	"kardex/internal/infrastructure/http/v1/dto"
)

// CreditorHandler handles creditor account endpoints. Accounts are
// created implicitly by credit sales, so the surface is read-only.
type CreditorHandler struct {
	*BaseHandler
	credits *credit.Service
}

// NewCreditorHandler creates a new creditor handler.
func NewCreditorHandler(credits *credit.Service) *CreditorHandler {
	return &CreditorHandler{
		BaseHandler: NewBaseHandler(),
		credits:     credits,
	}
}

// List handles GET /creditors
func (h *CreditorHandler) List(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	items, err := h.credits.ListCreditors(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}

// Get handles GET /creditors/:id
func (h *CreditorHandler) Get(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	creditorID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	found, err := h.credits.GetCreditor(c.Request.Context(), scope, creditorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, found)
}

// Transactions handles GET /creditors/:id/transactions
func (h *CreditorHandler) Transactions(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	creditorID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	items, err := h.credits.ListTransactions(c.Request.Context(), scope, creditorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}
