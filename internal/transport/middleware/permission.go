package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/restaurant-ops/internal"
)

// RequireAnyPermission lets the request through when the principal holds at
// least one of permissions. Admin satisfies every check.
func RequireAnyPermission(logger *slog.Logger, write func(http.ResponseWriter, *http.Request, *internal.AppError), permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				write(w, r, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
				return
			}

			for _, required := range permissions {
				if principal.HasPermission(required) {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("access denied: user lacks required permissions",
				"user_id", principal.ID,
				"required_permissions", permissions,
				"user_permissions", principal.Permissions)
			write(w, r, internal.ErrForbidden)
		})
	}
}
