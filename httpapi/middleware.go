package httpapi

import (
	"context"
	"net/http"
	"strings"

	"propertyflow/user"
)

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyRole
)

// TokenVerifier resolves a bearer token into a caller identity.
type TokenVerifier interface {
	Verify(token string) (string, user.Role, error)
}

// requireIdentity extracts the caller from the Authorization header and makes
// it available to handlers. Downstream code always receives identity as
// explicit values; nothing resolves "the current user" on its own.
func requireIdentity(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, role, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			ctx = context.WithValue(ctx, ctxKeyRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}

func callerRole(r *http.Request) user.Role {
	role, _ := r.Context().Value(ctxKeyRole).(user.Role)
	return role
}
