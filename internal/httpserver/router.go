package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/middleware/auth"
	"github.com/Skotchmaster/property_listing/internal/middleware/ratelimit"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	UserHandler     *UserHTTP
	PropertyHandler *PropertyHTTP
	TokenService    *auth.TokenService

	// optional
	AuthLimiter *ratelimit.Limiter
	Ready       func(ctx context.Context) error
	Metrics     http.Handler
	UploadDir   string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Warn("not_ready", "status", 503, "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	if d.AuthLimiter != nil {
		authGroup.Use(d.AuthLimiter.Middleware())
	}
	authGroup.POST("/signup", d.AuthHandler.Signup)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)

	requireLogin := d.TokenService.RequireLogin()

	user := api.Group("/user", requireLogin)
	user.GET("", d.UserHandler.Logout)

	property := api.Group("/property", requireLogin)
	property.POST("/add", d.PropertyHandler.Create)
	property.GET("/user-properties/:userId", d.PropertyHandler.ListByOwner)
	property.GET("/all", d.PropertyHandler.ListAll)
	property.GET("/search", d.PropertyHandler.Search)
	property.GET("/:propertyId", d.PropertyHandler.Get)
	property.PUT("/:propertyId", d.PropertyHandler.Update)
	property.DELETE("/:propertyId", d.PropertyHandler.Delete)
}
