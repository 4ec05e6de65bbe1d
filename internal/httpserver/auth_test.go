package httpserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/property_listing/internal/metrics"
	"github.com/Skotchmaster/property_listing/internal/tokens"
)

func cookieNamed(cks []*http.Cookie, name string) *http.Cookie {
	for _, ck := range cks {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthHTTP_SignupLoginFlow(t *testing.T) {
	t.Parallel()

	s := newServer(t)

	rec := s.do(t, jsonReq(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Jane", "email": "jane@example.com", "phone": "555", "password": "secret123",
	}), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User Registration completed", decode[map[string]string](t, rec)["msg"])

	rec = s.do(t, jsonReq(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "Jane@Example.com", "password": "secret123",
	}), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]string](t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "jane@example.com", body["email"])
	assert.Equal(t, "Jane", body["name"])
	assert.NotContains(t, rec.Body.String(), "password")

	access := cookieNamed(rec.Result().Cookies(), tokens.AccessCookie)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 900, access.MaxAge)
	require.NotNil(t, cookieNamed(rec.Result().Cookies(), tokens.RefreshCookie))
}

func TestAuthHTTP_Errors(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	s.login(t, "taken@example.com")

	cases := []struct {
		name   string
		path   string
		body   map[string]string
		status int
		msg    string
	}{
		{
			name:   "duplicate signup",
			path:   "/api/auth/signup",
			body:   map[string]string{"name": "A", "email": "TAKEN@example.com", "phone": "1", "password": "secret123"},
			status: http.StatusConflict,
			msg:    "User Already Exists",
		},
		{
			name:   "signup missing name",
			path:   "/api/auth/signup",
			body:   map[string]string{"email": "x@example.com", "phone": "1", "password": "secret123"},
			status: http.StatusBadRequest,
			msg:    "name is required",
		},
		{
			name:   "unknown user",
			path:   "/api/auth/login",
			body:   map[string]string{"email": "nobody@example.com", "password": "secret123"},
			status: http.StatusNotFound,
			msg:    "User Not Found",
		},
		{
			name:   "wrong password",
			path:   "/api/auth/login",
			body:   map[string]string{"email": "taken@example.com", "password": "nope-nope"},
			status: http.StatusUnauthorized,
			msg:    "Incorrect Password",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, jsonReq(http.MethodPost, tc.path, tc.body), nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, decode[map[string]string](t, rec)["msg"])
			assert.Nil(t, cookieNamed(rec.Result().Cookies(), tokens.AccessCookie))
		})
	}
}

func TestAuthHTTP_MalformedBody(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")

	rec := s.do(t, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid body", decode[map[string]string](t, rec)["msg"])
}

func TestAuthHTTP_Refresh(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	sess := s.login(t, "r@example.com")

	refresh := cookieNamed(sess.cookies, tokens.RefreshCookie)
	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil), []*http.Cookie{refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sess.id, decode[map[string]string](t, rec)["id"])
	require.NotNil(t, cookieNamed(rec.Result().Cookies(), tokens.AccessCookie))

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := cookieNamed(rec.Result().Cookies(), tokens.RefreshCookie)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestUserHTTP_Logout(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	sess := s.login(t, "out@example.com")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/user", nil), sess.cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Logged out successfully", body["message"])
	for _, name := range []string{tokens.AccessCookie, tokens.RefreshCookie} {
		ck := cookieNamed(rec.Result().Cookies(), name)
		require.NotNil(t, ck, name)
		assert.Empty(t, ck.Value)
		assert.Equal(t, -1, ck.MaxAge)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/user", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHTTP_LoginMetrics(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	s.login(t, "m@example.com")
	s.do(t, jsonReq(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "m@example.com", "password": "wrong-one",
	}), nil)

	rec := httptest.NewRecorder()
	metrics.Handler(s.reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(out), `outcome="success"} 1`)
	assert.Contains(t, string(out), `outcome="rejected"} 1`)
}
