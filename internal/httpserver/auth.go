package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/metrics"
	"github.com/Skotchmaster/property_listing/internal/service"
	"github.com/Skotchmaster/property_listing/internal/tokens"
	"github.com/Skotchmaster/property_listing/internal/transport"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies tokens.Cookies
	Metrics *metrics.Collector
	Now     func() time.Time
}

func (h *AuthHTTP) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return badBody(err)
	}

	res, err := h.Svc.Signup(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return badBody(err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.recordLogin(err)
		return err
	}
	h.recordLogin(nil)

	h.setAuthCookies(c, res.Tokens)
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, res.User)
}

// Refresh rotates the pair held in the refresh cookie.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	raw := ""
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		raw = ck.Value
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		h.clearAuthCookies(c)
		l.Warn("refresh_failed", "status", apperr.Status(err), "error", err)
		return err
	}

	h.setAuthCookies(c, res.Tokens)
	return c.JSON(http.StatusOK, res.User)
}

func (h *AuthHTTP) setAuthCookies(c echo.Context, p *tokens.Pair) {
	for _, ck := range h.Cookies.ForPair(p, h.now()) {
		c.SetCookie(ck)
	}
}

func (h *AuthHTTP) clearAuthCookies(c echo.Context) {
	for _, ck := range h.Cookies.Clear() {
		c.SetCookie(ck)
	}
}

func (h *AuthHTTP) recordLogin(err error) {
	if h.Metrics == nil {
		return
	}
	switch {
	case err == nil:
		h.Metrics.RecordLogin("success")
	case errors.Is(err, apperr.ErrInternal):
		h.Metrics.RecordLogin("error")
	default:
		h.Metrics.RecordLogin("rejected")
	}
}
