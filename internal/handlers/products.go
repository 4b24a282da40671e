package handlers

import (
	"context"
	"net/http"
	"strconv"

	"crop-catch/internal/middleware"
	"crop-catch/internal/models"
	"crop-catch/internal/service"
	"crop-catch/internal/session"

	"github.com/gin-gonic/gin"
)

type ProductService interface {
	List(ctx context.Context, f service.ProductFilter) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Create(ctx context.Context, admin *session.Identity, in service.ProductInput) (models.Product, error)
	Update(ctx context.Context, admin *session.Identity, id string, in service.ProductInput) (models.Product, error)
	Delete(ctx context.Context, admin *session.Identity, id string) error
}

type ProductHandler struct {
	svc ProductService
}

func NewProductHandler(svc ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// List accepts search, category, origin and available query parameters.
func (h *ProductHandler) List(c *gin.Context) {
	f := service.ProductFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Origin:   c.Query("origin"),
	}
	if raw := c.Query("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "available must be true or false")
			return
		}
		f.AvailableOnly = v
	}

	products, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid product payload")
		return
	}
	p, err := h.svc.Create(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid product payload")
		return
	}
	p, err := h.svc.Update(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
