package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
)

// ============================================================
// IdentityProvider implementation over GoTrue (/auth/v1)
// ============================================================

const authPrefix = "auth/v1/"

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         gotrueUser `json:"user"`
}

func (s *gotrueSession) toDomain() *domain.Session {
	out := &domain.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		User:         domain.User{ID: s.User.ID, Email: s.User.Email},
	}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	case s.ExpiresIn > 0:
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second).UTC()
	}
	return out
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignIn")
	defer span.End()

	resp, err := c.call(ctx, request{
		service: "auth",
		method:  http.MethodPost,
		path:    authPrefix + "token",
		query:   url.Values{"grant_type": {"password"}},
		body:    creds,
		bearer:  c.anonKey,
	})
	if err != nil {
		return nil, asUnauthorized(err)
	}

	var s gotrueSession
	if err := decode("auth", resp, &s); err != nil {
		return nil, err
	}
	return s.toDomain(), nil
}

// SignUp registers a user. When email confirmation is enabled GoTrue
// returns the user without tokens.
func (c *Client) SignUp(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignUp")
	defer span.End()

	resp, err := c.call(ctx, request{
		service: "auth",
		method:  http.MethodPost,
		path:    authPrefix + "signup",
		body:    creds,
		bearer:  c.anonKey,
	})
	if err != nil {
		return nil, asValidation("email", err)
	}

	var s gotrueSession
	if err := decode("auth", resp, &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		var u gotrueUser
		if err := decode("auth", resp, &u); err != nil {
			return nil, err
		}
		return &domain.Session{User: domain.User{ID: u.ID, Email: u.Email}}, nil
	}
	return s.toDomain(), nil
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Refresh")
	defer span.End()

	resp, err := c.call(ctx, request{
		service: "auth",
		method:  http.MethodPost,
		path:    authPrefix + "token",
		query:   url.Values{"grant_type": {"refresh_token"}},
		body:    domain.RefreshRequest{RefreshToken: refreshToken},
		bearer:  c.anonKey,
	})
	if err != nil {
		return nil, asUnauthorized(err)
	}

	var s gotrueSession
	if err := decode("auth", resp, &s); err != nil {
		return nil, err
	}
	return s.toDomain(), nil
}

// SignOut revokes the refresh tokens of the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SignOut")
	defer span.End()

	_, err := c.call(ctx, request{
		service: "auth",
		method:  http.MethodPost,
		path:    authPrefix + "logout",
		bearer:  accessToken,
	})
	return err
}

// RequestPasswordReset asks GoTrue to e-mail a recovery link that lands on redirectTo.
func (c *Client) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RequestPasswordReset")
	defer span.End()

	r := request{
		service: "auth",
		method:  http.MethodPost,
		path:    authPrefix + "recover",
		body:    domain.PasswordResetRequest{Email: email},
		bearer:  c.anonKey,
	}
	if redirectTo != "" {
		r.query = url.Values{"redirect_to": {redirectTo}}
	}
	_, err := c.call(ctx, r)
	return asValidation("email", err)
}

// UpdatePassword sets a new password for the user behind accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePassword")
	defer span.End()

	_, err := c.call(ctx, request{
		service: "auth",
		method:  http.MethodPut,
		path:    authPrefix + "user",
		body:    domain.PasswordUpdateRequest{Password: password},
		bearer:  accessToken,
	})
	return asValidation("password", err)
}

// GetUser resolves the user behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()

	resp, err := c.call(ctx, request{
		service: "auth",
		method:  http.MethodGet,
		path:    authPrefix + "user",
		bearer:  accessToken,
	})
	if err != nil {
		return nil, err
	}

	var u gotrueUser
	if err := decode("auth", resp, &u); err != nil {
		return nil, err
	}
	return &domain.User{ID: u.ID, Email: u.Email}, nil
}

// asUnauthorized turns a 4xx rejection of a token grant into ErrUnauthorized;
// GoTrue answers bad credentials with 400 invalid_grant.
func asUnauthorized(err error) error {
	var be *domain.ErrBackend
	if errors.As(err, &be) && be.Status >= 400 && be.Status < 500 {
		return &domain.ErrUnauthorized{Message: errorMessage([]byte(be.Body))}
	}
	return err
}

// asValidation turns a 400/422 rejection into a field validation error.
func asValidation(field string, err error) error {
	var be *domain.ErrBackend
	if errors.As(err, &be) && (be.Status == http.StatusBadRequest || be.Status == http.StatusUnprocessableEntity) {
		return &domain.ErrValidation{Field: field, Message: errorMessage([]byte(be.Body))}
	}
	return err
}
