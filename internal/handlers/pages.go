package handlers

import (
	"context"
	"net/http"

	"crop-catch/internal/middleware"
	"crop-catch/internal/service"
	"crop-catch/internal/session"

	"github.com/gin-gonic/gin"
)

func IndexPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":          "Crop Catch",
		"authenticated": middleware.CurrentIdentity(c) != nil,
	})
}

func AuthPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Sign in to continue",
		"signin":  "/api/auth/signin",
		"signup":  "/api/auth/signup",
	})
}

type Dashboarder interface {
	Dashboard(ctx context.Context, admin *session.Identity) (service.Dashboard, error)
}

type DashboardHandler struct {
	stats Dashboarder
}

func NewDashboardHandler(stats Dashboarder) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// AdminPage is the admin landing page: the guard trail and the dashboard
// stats.
func (h *DashboardHandler) AdminPage(c *gin.Context) {
	d, err := h.stats.Dashboard(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}

	decision, _ := middleware.Decision(c)
	c.JSON(http.StatusOK, gin.H{
		"guard": decision.Trail,
		"stats": d,
	})
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	d, err := h.stats.Dashboard(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
