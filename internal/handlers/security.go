package handlers

import (
	"context"
	"net/http"

	"crop-catch/internal/middleware"
	"crop-catch/internal/service"
	"crop-catch/internal/session"

	"github.com/gin-gonic/gin"
)

type SecurityService interface {
	Alerts(ctx context.Context, admin *session.Identity) ([]service.Alert, error)
	Activity(ctx context.Context, admin *session.Identity) ([]service.Activity, error)
	Stats(ctx context.Context, admin *session.Identity) (service.SecurityStats, error)
}

type SecurityHandler struct {
	svc SecurityService
}

func NewSecurityHandler(svc SecurityService) *SecurityHandler {
	return &SecurityHandler{svc: svc}
}

func (h *SecurityHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.Alerts(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(alerts))
}

func (h *SecurityHandler) Activity(c *gin.Context) {
	feed, err := h.svc.Activity(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(feed))
}

func (h *SecurityHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
