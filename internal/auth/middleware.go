package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or shadow our
// context values.
type contextKey string

const userIDKey contextKey = "userID"

var errNoToken = errors.New("auth: no bearer token")

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the token's subject in the request context otherwise.
//
// The 401 body uses the same {"detail": ...} shape as every other API error.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"valid authentication required"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// ContextWithUserID returns a copy of ctx carrying a verified owner id.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the verified owner id, or ("", false) when the
// request carried no verified identity.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errNoToken
	}
	return tokens.Validate(strings.TrimSpace(token))
}
