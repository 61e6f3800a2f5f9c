package middleware

import (
	"net/http"
	"strings"

	"github.com/threebee1/hrms-sub001/internal/auth/csrf"
	"github.com/threebee1/hrms-sub001/internal/auth/jwt"
	"github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/httputil"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// RequireAuth validates the bearer token and adds the employee context.
func RequireAuth(manager *jwt.Manager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := manager.Validate(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("token validation failed")
				httputil.Error(w, err)
				return
			}

			ctx := httputil.WithUserContext(r.Context(), claims.Subject, claims.EmployeeID, claims.Role, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose role does not match.
// It must run after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httputil.GetUserRole(r.Context()) != role {
				httputil.Error(w, errors.Forbidden("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFProtect verifies the CSRF token on state-changing requests.
// It must run after RequireAuth.
func CSRFProtect(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			sessionID := httputil.GetSessionID(r.Context())
			token := strings.TrimSpace(r.Header.Get(csrf.HeaderName))
			if sessionID == "" || token == "" || !csrf.Verify(secret, sessionID, token) {
				httputil.Error(w, errors.Forbidden("csrf validation failed"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
