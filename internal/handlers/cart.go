package handlers

import (
	"context"
	"net/http"

	"crop-catch/internal/cart"
	"crop-catch/internal/middleware"
	"crop-catch/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CartRegistry interface {
	For(ctx context.Context, userID string) *cart.Store
	Persist(ctx context.Context, userID string)
}

type ProductGetter interface {
	Get(ctx context.Context, id string) (models.Product, error)
}

type CartHandler struct {
	carts    CartRegistry
	products ProductGetter
}

func NewCartHandler(carts CartRegistry, products ProductGetter) *CartHandler {
	return &CartHandler{carts: carts, products: products}
}

type cartView struct {
	Items      []cart.Line     `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func viewOf(s *cart.Store) cartView {
	lines := s.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartView{Items: lines, TotalItems: s.TotalItems(), TotalPrice: s.TotalPrice()}
}

func (h *CartHandler) Get(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	c.JSON(http.StatusOK, viewOf(h.carts.For(c.Request.Context(), id.ID)))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

// AddItem adds one unit of an available product.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		badRequest(c, "product_id is required")
		return
	}
	ctx := c.Request.Context()

	p, err := h.products.Get(ctx, req.ProductID)
	if err != nil {
		renderError(c, err)
		return
	}
	if !p.Availability {
		badRequest(c, p.Name+" is not available")
		return
	}

	id := middleware.CurrentIdentity(c)
	store := h.carts.For(ctx, id.ID)
	store.AddItem(p)
	h.carts.Persist(ctx, id.ID)
	c.JSON(http.StatusOK, viewOf(store))
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	ctx := c.Request.Context()
	id := middleware.CurrentIdentity(c)

	store := h.carts.For(ctx, id.ID)
	store.UpdateQuantity(c.Param("id"), req.Quantity)
	h.carts.Persist(ctx, id.ID)
	c.JSON(http.StatusOK, viewOf(store))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.CurrentIdentity(c)

	store := h.carts.For(ctx, id.ID)
	store.RemoveItem(c.Param("id"))
	h.carts.Persist(ctx, id.ID)
	c.JSON(http.StatusOK, viewOf(store))
}

func (h *CartHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.CurrentIdentity(c)

	store := h.carts.For(ctx, id.ID)
	store.Clear()
	h.carts.Persist(ctx, id.ID)
	c.JSON(http.StatusOK, viewOf(store))
}
