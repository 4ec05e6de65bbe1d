package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/middleware/auth"
	"github.com/Skotchmaster/property_listing/internal/tokens"
	"github.com/Skotchmaster/property_listing/internal/transport"
)

type UserHTTP struct {
	Cookies tokens.Cookies
}

func (h *UserHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_logout")

	for _, ck := range h.Cookies.Clear() {
		c.SetCookie(ck)
	}

	if id, ok := auth.UserID(c); ok {
		l.Info("logout_successful", "user_id", id)
	}
	return c.JSON(http.StatusOK, transport.LogoutResponse{Success: true, Message: "Logged out successfully"})
}
