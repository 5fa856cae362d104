package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/ratixpay/ratixpay-backend/internal/services"
)

type usuarioFieldType string

const usuarioField usuarioFieldType = "usuarioField"

type AuthMiddlewareConfig struct {
	excludePaths []string
}

func AuthMiddleware() *AuthMiddlewareConfig {
	return &AuthMiddlewareConfig{}
}

// WithExcludedPaths lists path prefixes that skip authentication, such
// as login and provider webhooks.
func (a *AuthMiddlewareConfig) WithExcludedPaths(paths ...string) *AuthMiddlewareConfig {
	a.excludePaths = paths
	return a
}

func (a *AuthMiddlewareConfig) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, path := range a.excludePaths {
			if strings.HasPrefix(r.URL.Path, path) {
				next.ServeHTTP(w, r)
				return
			}
		}

		authService := GetServiceFromContext[models.AuthService](w, r, AuthServiceKey)
		jwtService := GetServiceFromContext[models.JWTService](w, r, JwtServiceKey)

		authHeader := r.Header.Get("Authorization")

		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			http.Error(w, "Bearer token is empty", http.StatusUnauthorized)
			return
		}

		token, err := (*jwtService).ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenIsInvalid) {
				http.Error(w, "Token is invalid", http.StatusUnauthorized)
				return
			}

			if errors.Is(err, services.ErrTokenIsExpired) {
				http.Error(w, "Token is expired", http.StatusUnauthorized)
				return
			}

			http.Error(w, fmt.Sprintf("Error occurred during validating token: %s", err.Error()), http.StatusUnauthorized)
			return
		}

		login, err := token.Claims.GetSubject()
		if err != nil {
			http.Error(w, fmt.Sprintf("Error occurred during reading sub field: %s", err.Error()), http.StatusUnauthorized)
			return
		}

		usuario, err := (*authService).GetUsuario(r.Context(), login)
		if err != nil {
			if errors.Is(err, services.ErrUsuarioIsNotExist) {
				http.Error(w, fmt.Sprintf("Usuario with login %s doesn't exist", login), http.StatusConflict)
				return
			}

			http.Error(w, fmt.Sprintf("Error occurred during checking usuario login: %s", err.Error()), http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usuarioField, usuario)))
	})
}

// RequireAdmin rejects authenticated users whose role isn't admin. It
// must run after the auth middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		usuario := GetUsuarioFromContext(w, r)
		if usuario == nil {
			return
		}

		if usuario.Role != models.RoleAdmin {
			http.Error(w, "Admin role is required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUsuarioFromContext retrieves the authenticated user. On failure it
// writes HTTP 500 and returns nil.
func GetUsuarioFromContext(w http.ResponseWriter, r *http.Request) *models.Usuario {
	usuario, ok := r.Context().Value(usuarioField).(*models.Usuario)

	if !ok {
		http.Error(w, "Could not retrieve usuario from context", http.StatusInternalServerError)
		return nil
	}

	return usuario
}
