package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/usecase/auth"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type contextKey string

const (
	ContextUserID contextKey = "userID"
	ContextIIN    contextKey = "iin"
	ContextRole   contextKey = "role"
)

func GetUserID(ctx context.Context) (int64, bool) {
	val, ok := ctx.Value(ContextUserID).(int64)
	return val, ok
}

func GetRole(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextRole).(string)
	return val, ok
}

type AuthMiddleware struct {
	auth *auth.Service
}

func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{auth: authService}
}

// Middleware validates the bearer token and stashes the caller's identity
// in the request context.
func (am *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}

		claims, err := am.auth.ParseToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
		ctx = context.WithValue(ctx, ContextIIN, claims.IIN)
		ctx = context.WithValue(ctx, ContextRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates admin-only routes. It must run after Middleware.
func (am *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetRole(r.Context())
		if !ok || role != domain.RoleAdmin {
			response.Error(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Websocket clients cannot set headers from the browser.
	return r.URL.Query().Get("token")
}
