package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.Response[api.AuthResult], error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.Response[api.AuthResult], error)
	Logout(ctx context.Context) (*api.Envelope, error)
	ForgotPassword(ctx context.Context, email string) (*api.Envelope, error)
	ResetPassword(ctx context.Context, token, password string) (*api.Envelope, error)
	VerifyEmail(ctx context.Context, token string) (*api.Envelope, error)
}

var ErrMissingToken = errors.New("backend returned no token")

// Session owns the authentication state of one device and announces every
// transition on the bus.
type Session struct {
	api    AuthAPI
	store  storage.Store
	tokens *Tokens
	bus    *events.Bus
}

func New(authAPI AuthAPI, store storage.Store, tokens *Tokens, bus *events.Bus) *Session {
	return &Session{
		api:    authAPI,
		store:  store,
		tokens: tokens,
		bus:    bus,
	}
}

func (s *Session) IsAuthenticated(ctx context.Context) bool {
	return s.tokens.Token(ctx) != ""
}

func (s *Session) User(ctx context.Context) (*domain.User, bool) {
	if !s.IsAuthenticated(ctx) {
		return nil, false
	}
	var u domain.User
	found, err := storage.GetJSON(ctx, s.store, storage.KeyUser, &u)
	if err != nil || !found {
		return nil, false
	}
	return &u, true
}

func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(email) == "" {
		errs["email"] = "email is required"
	}
	if password == "" {
		errs["password"] = "password is required"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	resp, err := s.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if !resp.Success {
		return nil, api.Rejection(resp.Envelope)
	}
	return s.establish(ctx, resp.Data)
}

type Registration struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// Register signs a shopper up. When the backend withholds a token (email
// verification pending) the device stays anonymous and the user is returned.
func (s *Session) Register(ctx context.Context, r Registration) (*domain.User, error) {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.TrimSpace(r.Email) == "" {
		errs["email"] = "email is required"
	}
	if len(r.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	}
	if r.Password != r.ConfirmPassword {
		errs["confirm_password"] = "passwords do not match"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	resp, err := s.api.Register(ctx, api.RegisterRequest{
		Name:          strings.TrimSpace(r.Name),
		Email:         strings.TrimSpace(r.Email),
		Phone:         strings.TrimSpace(r.Phone),
		Password:      r.Password,
		AffiliateCode: s.AffiliateCode(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("register failed: %w", err)
	}
	if !resp.Success {
		return nil, api.Rejection(resp.Envelope)
	}
	if resp.Data.Token == "" {
		u := resp.Data.User
		return &u, nil
	}
	return s.establish(ctx, resp.Data)
}

func (s *Session) establish(ctx context.Context, res api.AuthResult) (*domain.User, error) {
	if res.Token == "" {
		return nil, ErrMissingToken
	}
	if err := s.store.Set(ctx, storage.KeyAuthToken, []byte(res.Token)); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	if err := storage.SetJSON(ctx, s.store, storage.KeyUser, res.User); err != nil {
		return nil, fmt.Errorf("persist user: %w", err)
	}
	slog.InfoContext(ctx, "shopper signed in", "user_id", res.User.ID)
	s.bus.Publish(events.AuthStateChanged{Authenticated: true, UserID: res.User.ID})
	u := res.User
	return &u, nil
}

// Logout forgets the local credentials even when the backend call fails.
func (s *Session) Logout(ctx context.Context) {
	if s.IsAuthenticated(ctx) {
		if env, err := s.api.Logout(ctx); err != nil {
			slog.WarnContext(ctx, "logout call failed", "error", err)
		} else if !env.Success {
			slog.WarnContext(ctx, "logout rejected", "message", env.Message)
		}
	}
	for _, key := range []string{storage.KeyAuthToken, storage.KeyUser} {
		if err := s.store.Delete(ctx, key); err != nil {
			slog.ErrorContext(ctx, "failed to clear credentials", "key", key, "error", err)
		}
	}
	s.bus.Publish(events.AuthStateChanged{Authenticated: false})
}

// Refresh re-announces the current auth state, as a token refresh does.
func (s *Session) Refresh(ctx context.Context) {
	e := events.AuthStateChanged{Authenticated: s.IsAuthenticated(ctx)}
	if u, ok := s.User(ctx); ok {
		e.UserID = u.ID
	}
	s.bus.Publish(e)
}

// RequireAuth reports whether the device is signed in and otherwise asks the
// UI to open the login dialog.
func (s *Session) RequireAuth(ctx context.Context, reason string) bool {
	if s.IsAuthenticated(ctx) {
		return true
	}
	s.bus.Publish(events.OpenAuthModal{Reason: reason})
	return false
}

func (s *Session) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.FieldErrors{"email": "email is required"}
	}
	env, err := s.api.ForgotPassword(ctx, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("forgot password failed: %w", err)
	}
	return api.Rejection(env)
}

func (s *Session) ResetPassword(ctx context.Context, token, password, confirm string) error {
	errs := domain.FieldErrors{}
	if token == "" {
		errs["token"] = "reset token is missing"
	}
	if len(password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	}
	if password != confirm {
		errs["confirm_password"] = "passwords do not match"
	}
	if len(errs) > 0 {
		return errs
	}
	env, err := s.api.ResetPassword(ctx, token, password)
	if err != nil {
		return fmt.Errorf("reset password failed: %w", err)
	}
	return api.Rejection(env)
}

func (s *Session) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domain.FieldErrors{"token": "verification token is missing"}
	}
	env, err := s.api.VerifyEmail(ctx, token)
	if err != nil {
		return fmt.Errorf("verify email failed: %w", err)
	}
	return api.Rejection(env)
}

// Affiliate attribution

func (s *Session) SetAffiliateCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return s.store.Set(ctx, storage.KeyAffiliateCode, []byte(code))
}

func (s *Session) AffiliateCode(ctx context.Context) string {
	code, err := storage.GetString(ctx, s.store, storage.KeyAffiliateCode)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read affiliate code", "error", err)
		return ""
	}
	return code
}

func (s *Session) ClearAffiliateCode(ctx context.Context) error {
	return s.store.Delete(ctx, storage.KeyAffiliateCode)
}
