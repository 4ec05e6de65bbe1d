package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/hash"
	"github.com/Skotchmaster/property_listing/internal/models"
	"github.com/Skotchmaster/property_listing/internal/tokens"
	"github.com/Skotchmaster/property_listing/internal/transport"
)

func TestAuthService_SignupThenLogin(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	res, err := e.auth.Signup(ctx, transport.SignupRequest{
		Name: "Jane", Email: " Jane@Example.com ", Phone: "555-0100", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, MsgSignedUp, res.Msg)

	stored, err := e.users.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", stored.Email)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "secret123"))
	assert.False(t, stored.IsBlocked)

	login, err := e.auth.Login(ctx, "JANE@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), login.User.ID)
	assert.Equal(t, "jane@example.com", login.User.Email)
	assert.Equal(t, "Jane", login.User.Name)

	claims, err := tokens.AccessClaimsFromToken(login.Tokens.AccessToken, e.issuer.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, claims.UserID)
	assert.Equal(t, login.User.Email, claims.Email)
	assert.Equal(t, login.User.Name, claims.Name)

	assert.Equal(t, []string{"user_registered", "user_logged_in"}, e.events.types())
}

func TestAuthService_SignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.signup(t, "dup@example.com")

	_, err := e.auth.Signup(ctx, transport.SignupRequest{
		Name: "Other", Email: "DUP@example.com", Phone: "1", Password: "secret123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, MsgUserExists, apperr.Message(err))

	var count int64
	require.NoError(t, e.users.DB.Model(&models.User{}).Where("email = ?", "dup@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAuthService_SignupConcurrentDuplicates(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.auth.Signup(ctx, transport.SignupRequest{
				Name: "Racer", Email: "race@example.com", Phone: "1", Password: "secret123",
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, ok)
}

func TestAuthService_SignupValidation(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tests := []struct {
		name string
		req  transport.SignupRequest
	}{
		{"missing name", transport.SignupRequest{Email: "a@b.co", Phone: "1", Password: "secret123"}},
		{"bad email", transport.SignupRequest{Name: "n", Email: "nope", Phone: "1", Password: "secret123"}},
		{"missing phone", transport.SignupRequest{Name: "n", Email: "a@b.co", Password: "secret123"}},
		{"short password", transport.SignupRequest{Name: "n", Email: "a@b.co", Phone: "1", Password: "123"}},
	}
	for _, tt := range tests {
		_, err := e.auth.Signup(context.Background(), tt.req)
		require.Error(t, err, tt.name)
		assert.ErrorIs(t, err, apperr.ErrValidation, tt.name)
	}
	assert.Empty(t, e.events.types())
}

func TestAuthService_LoginFailures(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	u := e.signup(t, "jane@example.com")

	res, err := e.auth.Login(ctx, "jane@example.com", "wrong-password")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, MsgBadPassword, apperr.Message(err))

	res, err = e.auth.Login(ctx, "ghost@example.com", "secret123")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, MsgUserNotFound, apperr.Message(err))

	require.NoError(t, e.users.DB.Model(u).Update("is_blocked", true).Error)
	res, err = e.auth.Login(ctx, "jane@example.com", "secret123")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	u := e.signup(t, "jane@example.com")

	login, err := e.auth.Login(ctx, "jane@example.com", "secret123")
	require.NoError(t, err)

	res, err := e.auth.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), res.User.ID)
	assert.NotEqual(t, login.Tokens.AccessToken, res.Tokens.AccessToken)

	_, err = e.auth.Refresh(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = e.auth.Refresh(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, e.users.DB.Delete(u).Error)
	_, err = e.auth.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
