package middleware

import (
	"context"
	"net/http"
	"strings"

	"nutrition-intake/internal/ratelimit"
	"nutrition-intake/pkg/jwt"
	"nutrition-intake/pkg/response"
)

type contextKey string

const (
	SessionClaimsKey contextKey = "session_claims"
)

type SessionMiddleware struct {
	jwtService *jwt.JWTService
}

func NewSessionMiddleware(jwtService *jwt.JWTService) *SessionMiddleware {
	return &SessionMiddleware{
		jwtService: jwtService,
	}
}

// Authenticate requires a valid session token and scopes rate limits to
// its session.
func (m *SessionMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired session, please start a new one")
			return
		}

		ctx := context.WithValue(r.Context(), SessionClaimsKey, claims)
		ctx = ratelimit.WithScope(ctx, claims.SessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionClaimsFromContext extracts session claims from context
func GetSessionClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(SessionClaimsKey).(*jwt.Claims)
	return claims, ok
}
