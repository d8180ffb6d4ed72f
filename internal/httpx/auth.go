package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type ctxKey int

const salespersonKey ctxKey = iota

// Claims carried by the bearer token. Only the salesperson id matters here;
// issuing tokens is somebody else's job.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	Secret []byte
}

// Middleware resolves the Authorization bearer token to a salesperson id and
// stores it on the request context. Requests without a valid identity are
// rejected before any domain logic runs.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}
		var claims Claims
		tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.Secret, nil
		})
		if err != nil || !tok.Valid || claims.ID == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), salespersonKey, claims.ID)))
	})
}

// SalespersonID returns the authenticated salesperson id, or "" when the
// request did not pass the middleware.
func SalespersonID(ctx context.Context) string {
	id, _ := ctx.Value(salespersonKey).(string)
	return id
}
