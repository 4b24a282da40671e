package handlers

import (
	"context"
	"net/http"

	"crop-catch/internal/middleware"
	"crop-catch/internal/models"
	"crop-catch/internal/session"

	"github.com/gin-gonic/gin"
)

type OrderService interface {
	ListMine(ctx context.Context, id *session.Identity) ([]models.Order, error)
	ListAll(ctx context.Context, admin *session.Identity) ([]models.Order, error)
	UpdateStatus(ctx context.Context, admin *session.Identity, orderID string, status models.OrderStatus) (models.Order, error)
	UpdatePaymentStatus(ctx context.Context, admin *session.Identity, orderID string, status models.PaymentStatus) (models.Order, error)
	Delete(ctx context.Context, admin *session.Identity, orderID string) error
}

type OrderHandler struct {
	svc OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.svc.ListMine(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(orders))
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.svc.ListAll(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(orders))
}

type orderStatusRequest struct {
	OrderStatus   models.OrderStatus   `json:"order_status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// UpdateStatus applies order_status and/or payment_status, in that order.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid status payload")
		return
	}
	if req.OrderStatus == "" && req.PaymentStatus == "" {
		badRequest(c, "order_status or payment_status is required")
		return
	}
	ctx := c.Request.Context()
	admin := middleware.CurrentIdentity(c)
	orderID := c.Param("id")

	var (
		o   models.Order
		err error
	)
	if req.OrderStatus != "" {
		if o, err = h.svc.UpdateStatus(ctx, admin, orderID, req.OrderStatus); err != nil {
			renderError(c, err)
			return
		}
	}
	if req.PaymentStatus != "" {
		if o, err = h.svc.UpdatePaymentStatus(ctx, admin, orderID, req.PaymentStatus); err != nil {
			renderError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
