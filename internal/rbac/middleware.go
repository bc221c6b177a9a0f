package rbac

import (
	"fmt"
	"net/http"

	"github.com/bizinsight360/bizinsight360/internal/platform/httpx"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// Require admits requests whose principal holds one of roles. With no roles
// the route stays public.
func Require(roles ...Role) func(http.Handler) http.Handler {
	required := append([]Role(nil), roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, fmt.Errorf("%w: authentication required", shared.ErrUnauthorized))
				return
			}
			if !IsAuthorized(Role(principal.Role), required) {
				httpx.RespondError(w, fmt.Errorf("%w: role %q not permitted", shared.ErrForbidden, principal.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Caller returns the principal's id and role, or Unauthorized when absent.
func Caller(r *http.Request) (int64, Role, error) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		return 0, "", fmt.Errorf("%w: authentication required", shared.ErrUnauthorized)
	}
	return principal.UserID, Role(principal.Role), nil
}
