package handlers

import (
	"context"
	"fmt"
	"net/http"

	"crop-catch/internal/middleware"
	"crop-catch/internal/service"
	"crop-catch/internal/session"

	"github.com/gin-gonic/gin"
)

type SettingsService interface {
	Get(ctx context.Context, admin *session.Identity) (service.Settings, error)
	Update(ctx context.Context, admin *session.Identity, in service.Settings) (service.Settings, error)
	Reset(ctx context.Context, admin *session.Identity) (service.Settings, error)
	Export(ctx context.Context, admin *session.Identity) (string, []byte, error)
}

type SettingsHandler struct {
	svc SettingsService
}

func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var in service.Settings
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "settings must be an object of sections")
		return
	}
	s, err := h.svc.Update(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SettingsHandler) Reset(c *gin.Context) {
	s, err := h.svc.Reset(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Export downloads the settings as a dated JSON file.
func (h *SettingsHandler) Export(c *gin.Context) {
	name, body, err := h.svc.Export(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/json", body)
}
