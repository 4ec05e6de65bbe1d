package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/events"
	"github.com/Skotchmaster/property_listing/internal/hash"
	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/models"
	"github.com/Skotchmaster/property_listing/internal/repo"
	"github.com/Skotchmaster/property_listing/internal/tokens"
	"github.com/Skotchmaster/property_listing/internal/transport"
	"github.com/Skotchmaster/property_listing/internal/validation"
)

type AuthService struct {
	Users     *repo.UserRepo
	Tokens    *tokens.Issuer
	Validator *validation.Validator
	Events    events.Publisher
	Now       func() time.Time
}

type LoginResult struct {
	Tokens *tokens.Pair
	User   transport.AuthUser
}

func (s *AuthService) Signup(ctx context.Context, req transport.SignupRequest) (transport.MsgResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = repo.NormalizeEmail(req.Email)
	if err := s.Validator.Validate(req); err != nil {
		return transport.MsgResponse{}, err
	}

	if _, err := s.Users.FindByEmail(ctx, req.Email); err == nil {
		l.Warn("signup_failed", "status", 409, "reason", "email taken")
		return transport.MsgResponse{}, apperr.Conflictf(MsgUserExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("signup_failed", "status", 500, "reason", "cannot look up user", "error", err)
		return transport.MsgResponse{}, storeErr(err, MsgUserNotFound)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("signup_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return transport.MsgResponse{}, apperr.Wrap(apperr.Internal, "cannot hash password", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: pwHash,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			l.Warn("signup_failed", "status", 409, "reason", "email taken concurrently")
			return transport.MsgResponse{}, apperr.Wrap(apperr.Conflict, MsgUserExists, err)
		}
		l.Error("signup_failed", "status", 500, "reason", "cannot create user", "error", err)
		return transport.MsgResponse{}, storeErr(err, MsgUserNotFound)
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), events.UserEvent(events.UserRegistered, user, nowOr(s.Now)))
	l.Info("signup_successful", "user_id", user.ID)
	return transport.MsgResponse{Msg: MsgSignedUp}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	req := transport.LoginRequest{Email: repo.NormalizeEmail(email), Password: password}
	if err := s.Validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Error("login_failed", "status", 500, "error", err)
		}
		return nil, storeErr(err, MsgUserNotFound)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch", "user_id", user.ID)
		return nil, apperr.Unauthorizedf(MsgBadPassword)
	}
	if user.IsBlocked {
		l.Warn("login_failed", "status", 403, "reason", "user blocked", "user_id", user.ID)
		return nil, apperr.Forbiddenf(MsgUserBlocked)
	}

	res, err := s.issue(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), events.UserEvent(events.UserLoggedIn, user, nowOr(s.Now)))
	return res, nil
}

// Refresh trades a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, apperr.Unauthorizedf("refresh token missing")
	}
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.Tokens.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid refresh token", err)
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid refresh token", err)
	}

	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, MsgUserNotFound)
	}
	if user.IsBlocked {
		return nil, apperr.Forbiddenf(MsgUserBlocked)
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*LoginResult, error) {
	pair, err := s.Tokens.Issue(tokens.Payload{
		UserID: user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "cannot sign tokens", err)
	}
	return &LoginResult{
		Tokens: pair,
		User:   transport.AuthUser{ID: user.ID.String(), Email: user.Email, Name: user.Name},
	}, nil
}
