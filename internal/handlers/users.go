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

type UserService interface {
	List(ctx context.Context, admin *session.Identity) ([]service.UserSummary, error)
	UpdateRole(ctx context.Context, admin *session.Identity, userID string, role models.UserRole) (models.Profile, error)
	Stats(ctx context.Context, admin *session.Identity) (service.UserStats, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(users))
}

type roleRequest struct {
	Role models.UserRole `json:"role"`
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid role payload")
		return
	}
	p, err := h.svc.UpdateRole(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Role)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *UserHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
