package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/draftforge/draftforge-api/internal/api/shared"
	"github.com/draftforge/draftforge-api/internal/redact"
	"github.com/draftforge/draftforge-api/internal/service/auth"
)

// TriggerAuthMiddleware guards the scheduler-facing trigger endpoints with
// bearer-token authentication.
type TriggerAuthMiddleware struct {
	tokens auth.TriggerTokenService
}

// NewTriggerAuthMiddleware creates a new TriggerAuthMiddleware.
func NewTriggerAuthMiddleware(tokens auth.TriggerTokenService) *TriggerAuthMiddleware {
	return &TriggerAuthMiddleware{
		tokens: tokens,
	}
}

// Authenticate validates the Authorization bearer token and adds the caller's
// subject to the request context for authorized requests.
func (m *TriggerAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		subject, err := m.tokens.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			default:
				slog.Debug("trigger token rejected", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), shared.TriggerSubjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
