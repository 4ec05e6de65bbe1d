package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/service"
	"github.com/Skotchmaster/property_listing/internal/tokens"
)

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*service.LoginResult, error)
}

type TokenService struct {
	AccessSecret []byte
	Refresher    Refresher
	Cookies      tokens.Cookies
	Now          func() time.Time
}

func (t *TokenService) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// RequireLogin accepts a valid access cookie. When it is missing or expired the
// refresh cookie is rotated into a new pair before the request continues.
func (t *TokenService) RequireLogin() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:             t.AccessSecret,
		SigningMethod:          jwt.SigningMethodHS256.Alg(),
		TokenLookup:            "cookie:" + tokens.AccessCookie,
		ContextKey:             TokenKey,
		NewClaimsFunc:          func(echo.Context) jwt.Claims { return new(tokens.Claims) },
		ErrorHandler:           t.refreshOnFailure,
		ContinueOnIgnoredError: true,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims, ok := claimsFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			if err := setUserContext(c, claims); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("user_id", claims.UserID)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			return next(c)
		})
	}
}

func (t *TokenService) refreshOnFailure(c echo.Context, cause error) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("middleware", "auth.require_login")

	rc, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || rc.Value == "" || t.Refresher == nil {
		l.Warn("auth_failed", "status", http.StatusUnauthorized, "reason", "no usable token", "error", cause)
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	res, err := t.Refresher.Refresh(ctx, rc.Value)
	if err != nil {
		t.clearAuthCookies(c)
		if errors.Is(err, apperr.ErrForbidden) {
			l.Warn("refresh_failed", "status", http.StatusForbidden, "reason", "user blocked")
			return echo.NewHTTPError(http.StatusForbidden, apperr.Message(err))
		}
		l.Warn("refresh_failed", "status", http.StatusUnauthorized, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	claims, err := tokens.AccessClaimsFromToken(res.Tokens.AccessToken, t.AccessSecret)
	if err != nil {
		t.clearAuthCookies(c)
		l.Error("refresh_failed", "status", http.StatusUnauthorized, "reason", "issued token rejected", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	for _, ck := range t.Cookies.ForPair(res.Tokens, t.now()) {
		c.SetCookie(ck)
	}
	c.Set(TokenKey, &jwt.Token{Claims: claims, Valid: true})

	l.Info("token_refreshed", "user_id", claims.UserID)
	return nil
}

func (t *TokenService) clearAuthCookies(c echo.Context) {
	for _, ck := range t.Cookies.Clear() {
		c.SetCookie(ck)
	}
}
