package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>"
// header. On failure it returns the message sent back to the client.
func bearerToken(r *http.Request) (string, string) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", "Token de autenticação não fornecido"
	}
	scheme, token, ok := strings.Cut(h, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", "Formato de token inválido"
	}
	return token, ""
}

// SessionMiddleware verifies the Supabase access token and attaches the
// caller to the request context. The raw token travels with the Principal
// so store calls run under the caller's row-level policies.
func SessionMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(msg string, err error) {
				logger.Warn("session rejected",
					zap.String("path", r.URL.Path),
					zap.String("reason", msg),
					zap.Error(err),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="denuncias"`)
				writeError(w, http.StatusUnauthorized, msg)
			}

			token, msg := bearerToken(r)
			if msg != "" {
				reject(msg, nil)
				return
			}

			p, err := authSvc.VerifyAccessToken(token)
			if err != nil {
				reject(err.Error(), err)
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("enduser.id", p.UserID))
			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
		})
	}
}
