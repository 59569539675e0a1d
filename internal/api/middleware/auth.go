package middleware

import (
	"context"
	"net/http"
	"strings"

	apiContext "grimoire/internal/api/context"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/platform/auth"
	"grimoire/internal/platform/repositories"
)

type AuthMiddleware struct {
	tokenSvc *auth.TokenService
	userRepo *repositories.UserRepository
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, userRepo *repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, userRepo: userRepo}
}

// Handle validates the bearer access token and resolves the caller. A valid
// token for a disabled account reads as forbidden, not unauthenticated.
func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := m.tokenSvc.ValidateAccessToken(parts[1])
		if err != nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired token", nil)
			return
		}

		user, err := m.userRepo.GetByID(claims.UserID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		if user == nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Unknown user", nil)
			return
		}
		if !user.IsActive {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Account disabled", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		ctx = context.WithValue(ctx, apiContext.User, user)
		next(w, r.WithContext(ctx))
	}
}
