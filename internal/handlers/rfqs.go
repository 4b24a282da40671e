package handlers

import (
	"context"
	"net/http"

	"crop-catch/internal/middleware"
	"crop-catch/internal/models"
	"crop-catch/internal/service"
	"crop-catch/internal/session"

	"github.com/gin-gonic/gin"
)

type RFQService interface {
	Submit(ctx context.Context, id *session.Identity, c service.Cart, notes string) (models.RFQ, error)
	ListMine(ctx context.Context, id *session.Identity) ([]models.RFQ, error)
	GetMine(ctx context.Context, id *session.Identity, rfqID string) (models.RFQ, error)
	RespondToQuote(ctx context.Context, id *session.Identity, rfqID string, accept bool) (service.QuoteResponse, error)
	ListAll(ctx context.Context, admin *session.Identity) ([]models.RFQ, error)
	Quote(ctx context.Context, admin *session.Identity, rfqID string, in service.QuoteInput) (models.RFQ, error)
	Delete(ctx context.Context, admin *session.Identity, rfqID string) error
}

type RFQHandler struct {
	svc   RFQService
	carts CartRegistry
}

func NewRFQHandler(svc RFQService, carts CartRegistry) *RFQHandler {
	return &RFQHandler{svc: svc, carts: carts}
}

type submitRequest struct {
	Notes string `json:"notes"`
}

// Submit turns the caller's cart into an RFQ.
func (h *RFQHandler) Submit(c *gin.Context) {
	var req submitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid rfq payload")
			return
		}
	}
	ctx := c.Request.Context()
	id := middleware.CurrentIdentity(c)

	rfq, err := h.svc.Submit(ctx, id, h.carts.For(ctx, id.ID), req.Notes)
	if err != nil {
		renderError(c, err)
		return
	}
	h.carts.Persist(ctx, id.ID)
	c.JSON(http.StatusCreated, rfq)
}

func (h *RFQHandler) ListMine(c *gin.Context) {
	rfqs, err := h.svc.ListMine(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(rfqs))
}

func (h *RFQHandler) GetMine(c *gin.Context) {
	rfq, err := h.svc.GetMine(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rfq)
}

type respondRequest struct {
	Accept *bool `json:"accept"`
}

func (h *RFQHandler) Respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Accept == nil {
		badRequest(c, "accept must be true or false")
		return
	}
	resp, err := h.svc.RespondToQuote(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), *req.Accept)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RFQHandler) ListAll(c *gin.Context) {
	rfqs, err := h.svc.ListAll(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(rfqs))
}

func (h *RFQHandler) Quote(c *gin.Context) {
	var in service.QuoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid quote payload")
		return
	}
	rfq, err := h.svc.Quote(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rfq)
}

func (h *RFQHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// orEmpty keeps empty lists as [] rather than null.
func orEmpty[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
