package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/property_listing/internal/db/dbtest"
	"github.com/Skotchmaster/property_listing/internal/models"
	"github.com/Skotchmaster/property_listing/internal/repo"
	"github.com/Skotchmaster/property_listing/internal/sanitize"
	"github.com/Skotchmaster/property_listing/internal/tokens"
	"github.com/Skotchmaster/property_listing/internal/transport"
	"github.com/Skotchmaster/property_listing/internal/validation"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, _ := event.(map[string]any)
	r.events = append(r.events, recordedEvent{Topic: topic, Key: key, Event: ev})
	return r.err
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

// memIndex matches a query against title, description and location by substring.
type memIndex struct {
	mu   sync.Mutex
	docs map[uuid.UUID]models.Property
	err  error
}

func newMemIndex() *memIndex { return &memIndex{docs: map[uuid.UUID]models.Property{}} }

func (m *memIndex) Put(_ context.Context, p *models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p.ID] = *p
	return nil
}

func (m *memIndex) Remove(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *memIndex) Search(_ context.Context, q string, from, size int) ([]uuid.UUID, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	q = strings.ToLower(q)
	var hits []models.Property
	for _, d := range m.docs {
		text := strings.ToLower(d.Title + " " + d.Description + " " + d.Location)
		if strings.Contains(text, q) {
			hits = append(hits, d)
		}
	}
	// newest first, like the store
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].CreatedAt.After(hits[j-1].CreatedAt); j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	total := int64(len(hits))
	if from > len(hits) {
		from = len(hits)
	}
	end := from + size
	if end > len(hits) {
		end = len(hits)
	}
	ids := make([]uuid.UUID, 0, end-from)
	for _, h := range hits[from:end] {
		ids = append(ids, h.ID)
	}
	return ids, total, nil
}

var errIndexDown = errors.New("index unavailable")

type env struct {
	auth   *AuthService
	props  *PropertyService
	users  *repo.UserRepo
	repo   *repo.PropertyRepo
	events *recorder
	issuer *tokens.Issuer
}

func newEnv(t *testing.T) *env {
	t.Helper()

	gdb := dbtest.Open(t)
	users := repo.NewUserRepo(gdb)
	props := repo.NewPropertyRepo(gdb)
	v := validation.New()
	rec := &recorder{}
	issuer := &tokens.Issuer{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}

	return &env{
		auth: &AuthService{Users: users, Tokens: issuer, Validator: v, Events: rec},
		props: &PropertyService{
			Properties: props,
			Users:      users,
			Validator:  v,
			Sanitizer:  sanitize.New(),
			Events:     rec,
		},
		users:  users,
		repo:   props,
		events: rec,
		issuer: issuer,
	}
}

func (e *env) signup(t *testing.T, email string) *models.User {
	t.Helper()
	_, err := e.auth.Signup(context.Background(), transport.SignupRequest{
		Name: "Jane", Email: email, Phone: "555-0100", Password: "secret123",
	})
	require.NoError(t, err)
	u, err := e.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

func price(v float64) *float64 { return &v }

type fakeUploads struct {
	urls      []string
	err       error
	stored    int
	discarded int
}

func (f *fakeUploads) Len() int { return len(f.urls) }

func (f *fakeUploads) Store(context.Context) ([]string, error) {
	f.stored++
	if f.err != nil {
		return nil, f.err
	}
	return f.urls, nil
}

func (f *fakeUploads) Discard(context.Context) { f.discarded++ }

func validInput(title string) transport.PropertyInput {
	return transport.PropertyInput{
		Title:       title,
		Description: "two bedrooms",
		Price:       price(1000),
		Location:    "Brooklyn, NY",
		ImageURLs:   []string{"https://img.example.com/" + title + ".jpg"},
	}
}

// seed stores a listing with an explicit creation time so ordering is deterministic.
func (e *env) seed(t *testing.T, owner uuid.UUID, title, location string, price float64, created time.Time) *models.Property {
	t.Helper()
	p := &models.Property{
		Title:     title,
		Location:  location,
		Price:     price,
		ImageURLs: []string{"a.jpg"},
		OwnerID:   owner,
		CreatedAt: created,
	}
	require.NoError(t, e.repo.Create(context.Background(), p))
	return p
}
