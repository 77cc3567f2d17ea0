package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/frahmantamala/restaurant-ops/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: baseHandler,
		logger:      baseHandler.Logger,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := internal.PrincipalFromContext(r.Context())
		if !ok {
			ra.logger.Warn("authorization check failed: principal not found in context")
			ra.WriteAppError(w, r, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
			return
		}

		if !principal.HasPermission(permission) {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", principal.ID,
				"required_permission", permission,
				"user_permissions", principal.Permissions)
			ra.WriteAppError(w, r, internal.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}

func (ra *RBACAuthorization) RequireManageSchedule() func(http.Handler) http.Handler {
	return ra.Require(PermissionManageSchedule)
}

func (ra *RBACAuthorization) RequireApproveTimeOff() func(http.Handler) http.Handler {
	return ra.Require(PermissionApproveTimeOff)
}

func (ra *RBACAuthorization) RequireManageEmployees() func(http.Handler) http.Handler {
	return ra.Require(PermissionManageEmployees)
}
