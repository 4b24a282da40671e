package handlers

import (
	"context"
	"net/http"
	"strconv"

	"crop-catch/internal/middleware"
	"crop-catch/internal/models"
	"crop-catch/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type AuditHandler struct {
	admin service.Admin
	logs  AuditReader
}

func NewAuditHandler(admin service.Admin, logs AuditReader) *AuditHandler {
	return &AuditHandler{admin: admin, logs: logs}
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

func (h *AuditHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.admin.RequireAdmin(ctx, middleware.CurrentIdentity(c)); err != nil {
		renderError(c, err)
		return
	}

	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive number")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	logs, err := h.logs.Recent(ctx, limit)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
