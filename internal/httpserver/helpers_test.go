package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/property_listing/internal/db/dbtest"
	"github.com/Skotchmaster/property_listing/internal/events"
	"github.com/Skotchmaster/property_listing/internal/metrics"
	"github.com/Skotchmaster/property_listing/internal/middleware/auth"
	"github.com/Skotchmaster/property_listing/internal/models"
	"github.com/Skotchmaster/property_listing/internal/repo"
	"github.com/Skotchmaster/property_listing/internal/sanitize"
	"github.com/Skotchmaster/property_listing/internal/service"
	"github.com/Skotchmaster/property_listing/internal/tokens"
	"github.com/Skotchmaster/property_listing/internal/validation"
)

type memStore struct {
	mu   sync.Mutex
	objs map[string][]byte
	err  error
	// failAfter makes Put fail once that many objects are stored; zero disables it.
	failAfter int
}

func (m *memStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter > 0 && len(m.objs) >= m.failAfter {
		return "", errors.New("quota exceeded")
	}
	m.objs[key] = b
	return "https://cdn.test/" + key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objs, key)
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objs)
}

type server struct {
	e       *echo.Echo
	store   *memStore
	reg     *prometheus.Registry
	props   *repo.PropertyRepo
	readyFn func(context.Context) error
}

func newServer(t *testing.T) *server {
	t.Helper()

	gdb := dbtest.Open(t)
	users := repo.NewUserRepo(gdb)
	props := repo.NewPropertyRepo(gdb)
	v := validation.New()
	issuer := &tokens.Issuer{
		AccessSecret:  []byte("test-access"),
		RefreshSecret: []byte("test-refresh"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}
	authSvc := &service.AuthService{Users: users, Tokens: issuer, Validator: v, Events: events.Nop{}}
	propSvc := &service.PropertyService{
		Properties: props,
		Users:      users,
		Validator:  v,
		Sanitizer:  sanitize.New(),
		Events:     events.Nop{},
	}

	s := &server{e: echo.New(), store: &memStore{objs: map[string][]byte{}}, reg: prometheus.NewRegistry(), props: props}
	s.e.HTTPErrorHandler = ErrorHandler

	cookies := tokens.Cookies{}
	Register(s.e, &Deps{
		AuthHandler:     &AuthHTTP{Svc: authSvc, Cookies: cookies, Metrics: metrics.NewCollector(s.reg)},
		UserHandler:     &UserHTTP{Cookies: cookies},
		PropertyHandler: &PropertyHTTP{Svc: propSvc, Store: s.store},
		TokenService:    &auth.TokenService{AccessSecret: issuer.AccessSecret, Refresher: authSvc, Cookies: cookies},
		Ready: func(ctx context.Context) error {
			if s.readyFn != nil {
				return s.readyFn(ctx)
			}
			return nil
		},
	})
	return s
}

func (s *server) do(t *testing.T, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func jsonReq(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formReq(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

type upload struct {
	name string
	body string
}

func multipartReq(t *testing.T, method, target string, form url.Values, files ...upload) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(imageField, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type session struct {
	id      string
	cookies []*http.Cookie
}

// login signs a user up and returns their auth cookies.
func (s *server) login(t *testing.T, email string) session {
	t.Helper()

	rec := s.do(t, jsonReq(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Jane", "email": email, "phone": "555-0100", "password": "secret123",
	}), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, jsonReq(http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": "secret123",
	}), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user := decode[map[string]string](t, rec)
	return session{id: user["id"], cookies: rec.Result().Cookies()}
}

func listing(title string) url.Values {
	return url.Values{
		"title":       {title},
		"description": {"sunny"},
		"price":       {"1500"},
		"location":    {"Austin, TX"},
		"imageUrl":    {"https://img.test/" + title + ".jpg"},
	}
}

// addListing creates a listing through the API and returns its id.
func (s *server) addListing(t *testing.T, sess session, form url.Values) string {
	t.Helper()

	rec := s.do(t, formReq(http.MethodPost, "/api/property/add", form), sess.cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p models.Property
	require.NoError(t, s.props.DB.Where("title = ?", form.Get("title")).First(&p).Error)
	return p.ID.String()
}
