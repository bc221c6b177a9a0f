package auth

import (
	"net/http"
	"strings"

	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// Authenticate resolves a Bearer access token into a principal. Requests
// without a valid token pass through anonymously so public routes keep
// working; rbac.Require rejects them where a role is needed.
func Authenticate(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.ParseAccessToken(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, _ := claims.UserID()
			ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{UserID: userID, Role: string(claims.Role)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
