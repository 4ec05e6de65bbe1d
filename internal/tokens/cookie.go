package tokens

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type Cookies struct {
	Secure bool
	Path   string
}

func (c Cookies) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// ForPair returns the access and refresh cookies for a freshly issued pair.
func (c Cookies) ForPair(p *Pair, now time.Time) []*http.Cookie {
	return []*http.Cookie{
		CreateCookie(AccessCookie, p.AccessToken, c.path(), p.AccessExp, now, c.Secure),
		CreateCookie(RefreshCookie, p.RefreshToken, c.path(), p.RefreshExp, now, c.Secure),
	}
}

func (c Cookies) Clear() []*http.Cookie {
	return []*http.Cookie{
		DeleteCookie(AccessCookie, c.path(), c.Secure),
		DeleteCookie(RefreshCookie, c.path(), c.Secure),
	}
}

func CreateCookie(name, value, path string, exp, now time.Time, secure bool) *http.Cookie {
	maxAge := int(exp.Sub(now).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
