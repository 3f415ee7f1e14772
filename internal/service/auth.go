// Package service — AuthService fronts the hosted identity provider:
// sign-in, sign-up, refresh, sign-out, password recovery, and local
// verification of the access tokens it issues.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// AuthService orchestrates authentication flows.
type AuthService struct {
	idp           port.IdentityProvider
	jwtSecret     []byte
	resetRedirect string
	logger        *zap.Logger
}

// NewAuthService creates a new auth service. jwtSecret is the project's
// JWT secret, used to verify access tokens without a round-trip.
func NewAuthService(idp port.IdentityProvider, jwtSecret, resetRedirect string, logger *zap.Logger) *AuthService {
	return &AuthService{
		idp:           idp,
		jwtSecret:     []byte(jwtSecret),
		resetRedirect: resetRedirect,
		logger:        logger,
	}
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return &domain.ErrValidation{Field: "email", Message: "E-mail inválido"}
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("Senha deve ter ao menos %d caracteres", domain.MinPasswordLength)}
	}
	return nil
}

// ============================================================
// Sign-in / sign-up / refresh
// ============================================================

func (s *AuthService) SignIn(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.SignIn")
	defer span.End()

	creds.Email = strings.TrimSpace(creds.Email)
	if err := validateEmail(creds.Email); err != nil {
		return nil, err
	}
	if creds.Password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "Senha obrigatória"}
	}

	session, err := s.idp.SignIn(ctx, creds)
	if err != nil {
		s.logger.Warn("sign-in failed", zap.String("email", creds.Email), zap.Error(err))
		return nil, err
	}
	s.logger.Info("signed in", zap.String("user_id", session.User.ID))
	return session, nil
}

func (s *AuthService) SignUp(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.SignUp")
	defer span.End()

	creds.Email = strings.TrimSpace(creds.Email)
	if err := validateEmail(creds.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(creds.Password); err != nil {
		return nil, err
	}

	session, err := s.idp.SignUp(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.logger.Info("signed up", zap.String("user_id", session.User.ID))
	return session, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	if strings.TrimSpace(refreshToken) == "" {
		return nil, &domain.ErrValidation{Field: "refresh_token", Message: "refresh_token obrigatório"}
	}
	return s.idp.Refresh(ctx, refreshToken)
}

// ============================================================
// Session-bound operations
// ============================================================

func (s *AuthService) SignOut(ctx context.Context) error {
	ctx, span := authTracer.Start(ctx, "AuthService.SignOut")
	defer span.End()

	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err := s.idp.SignOut(ctx, p.AccessToken); err != nil {
		return err
	}
	s.logger.Info("signed out", zap.String("user_id", p.UserID))
	return nil
}

// RequestPasswordReset always succeeds for a well-formed address so that
// callers cannot probe which e-mails are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.RequestPasswordReset")
	defer span.End()

	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.idp.RequestPasswordReset(ctx, email, s.resetRedirect); err != nil {
		s.logger.Warn("password reset request failed", zap.Error(err))
		var verr *domain.ErrValidation
		if errors.As(err, &verr) {
			return nil
		}
		return err
	}
	return nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, password string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.UpdatePassword")
	defer span.End()

	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	if err := s.idp.UpdatePassword(ctx, p.AccessToken, password); err != nil {
		return err
	}
	s.logger.Info("password updated", zap.String("user_id", p.UserID))
	return nil
}

// ============================================================
// VerifyAccessToken — used by the session middleware
// ============================================================

// AccessClaims are the claims GoTrue puts in access tokens.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// VerifyAccessToken checks signature and expiry of a GoTrue access token and
// returns the caller it identifies.
func (s *AuthService) VerifyAccessToken(tokenString string) (*domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	if claims.Role == "anon" {
		return nil, &domain.ErrUnauthorized{Message: "Sessão obrigatória"}
	}

	return &domain.Principal{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: tokenString,
	}, nil
}
