package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/property_listing/internal/tokens"
)

const (
	TokenKey  = "user"
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

// UserID returns the authenticated user's id set by RequireLogin.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(UserIDKey).(uuid.UUID)
	return id, ok
}

func Claims(c echo.Context) (*tokens.Claims, bool) {
	cl, ok := c.Get(ClaimsKey).(*tokens.Claims)
	return cl, ok
}

func setUserContext(c echo.Context, claims *tokens.Claims) error {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return err
	}
	c.Set(UserIDKey, id)
	c.Set(ClaimsKey, claims)
	return nil
}

func claimsFrom(c echo.Context) (*tokens.Claims, bool) {
	tok, ok := c.Get(TokenKey).(*jwt.Token)
	if !ok || tok == nil {
		return nil, false
	}
	cl, ok := tok.Claims.(*tokens.Claims)
	return cl, ok && cl.UserID != ""
}
