package server

import (
	"net/http"

	_ "crop-catch/docs"
	"crop-catch/internal/config"
	"crop-catch/internal/handlers"
	"crop-catch/internal/middleware"
	"crop-catch/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const sessionCookie = "cc_session"

type SessionManager interface {
	handlers.SessionManager
	middleware.Resolver
}

// Deps are the components the HTTP surface is built from.
type Deps struct {
	Sessions SessionManager
	Profiles handlers.ProfileReader

	// AuthGuard only needs a signed-in identity; AdminGuard the admin role.
	AuthGuard  middleware.Evaluator
	AdminGuard middleware.Evaluator

	Admin service.Admin
	Audit handlers.AuditReader
	Carts handlers.CartRegistry

	Products handlers.ProductService
	RFQs     handlers.RFQService
	Orders   handlers.OrderService
	Users    handlers.UserService
	Settings handlers.SettingsService
	Stats    handlers.Dashboarder
	Security handlers.SecurityService
}

func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   !cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookie, store))
	r.Use(middleware.InjectIdentity(d.Sessions))

	authH := handlers.NewAuthHandler(d.Sessions, d.Profiles)
	dashboardH := handlers.NewDashboardHandler(d.Stats)
	productH := handlers.NewProductHandler(d.Products)
	cartH := handlers.NewCartHandler(d.Carts, d.Products)
	rfqH := handlers.NewRFQHandler(d.RFQs, d.Carts)
	orderH := handlers.NewOrderHandler(d.Orders)
	userH := handlers.NewUserHandler(d.Users)
	settingsH := handlers.NewSettingsHandler(d.Settings)
	securityH := handlers.NewSecurityHandler(d.Security)
	auditH := handlers.NewAuditHandler(d.Admin, d.Audit)

	// pages
	r.GET("/", handlers.IndexPage)
	r.GET("/auth", handlers.AuthPage)
	r.GET("/admin", middleware.Require(d.AdminGuard, middleware.ModePage), dashboardH.AdminPage)

	api := r.Group("/api")

	// auth
	limiter := middleware.NewRateLimiter(cfg.AuthRateRPS, cfg.AuthRateBurst)
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", limiter.Middleware(), authH.SignUp)
	authGroup.POST("/signin", limiter.Middleware(), authH.SignIn)
	authGroup.POST("/signout", authH.SignOut)

	// catalog
	api.GET("/products", productH.List)
	api.GET("/products/:id", productH.Get)

	// customer
	customer := api.Group("/")
	customer.Use(middleware.Require(d.AuthGuard, middleware.ModeAPI))

	customer.GET("/profile", authH.Profile)
	customer.PATCH("/profile", authH.UpdateProfile)

	customer.GET("/cart", cartH.Get)
	customer.DELETE("/cart", cartH.Clear)
	customer.POST("/cart/items", cartH.AddItem)
	customer.PATCH("/cart/items/:id", cartH.UpdateQuantity)
	customer.DELETE("/cart/items/:id", cartH.RemoveItem)

	customer.GET("/rfqs", rfqH.ListMine)
	customer.POST("/rfqs", rfqH.Submit)
	customer.GET("/rfqs/:id", rfqH.GetMine)
	customer.POST("/rfqs/:id/respond", rfqH.Respond)

	customer.GET("/orders", orderH.ListMine)

	// admin
	admin := api.Group("/admin")
	admin.Use(middleware.Require(d.AdminGuard, middleware.ModeAPI))

	admin.GET("/stats", dashboardH.Stats)

	admin.POST("/products", productH.Create)
	admin.PATCH("/products/:id", productH.Update)
	admin.DELETE("/products/:id", productH.Delete)

	admin.GET("/rfqs", rfqH.ListAll)
	admin.PATCH("/rfqs/:id", rfqH.Quote)
	admin.DELETE("/rfqs/:id", rfqH.Delete)

	admin.GET("/orders", orderH.ListAll)
	admin.PATCH("/orders/:id", orderH.UpdateStatus)
	admin.DELETE("/orders/:id", orderH.Delete)

	admin.GET("/users", userH.List)
	admin.GET("/users/stats", userH.Stats)
	admin.PATCH("/users/:id/role", userH.UpdateRole)

	admin.GET("/settings", settingsH.Get)
	admin.PUT("/settings", settingsH.Update)
	admin.POST("/settings/reset", settingsH.Reset)
	admin.GET("/settings/export", settingsH.Export)

	admin.GET("/security/alerts", securityH.Alerts)
	admin.GET("/security/activity", securityH.Activity)
	admin.GET("/security/stats", securityH.Stats)

	admin.GET("/audit", auditH.List)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
