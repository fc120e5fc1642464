package handlers

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/product"
	"kardex/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	products *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products *product.Service) *ProductHandler {
	return &ProductHandler{
		BaseHandler: NewBaseHandler(),
		products:    products,
	}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.products.Create(c.Request.Context(), scope, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, created)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	found, err := h.products.Get(c.Request.Context(), scope, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, found)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	items, err := h.products.List(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.products.Update(c.Request.Context(), scope, productID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, updated)
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), scope, productID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "product deleted")
}
