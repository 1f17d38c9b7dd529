package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrEthical07/tokenauth"
)

// AccessValidator is satisfied by *tokenauth.Engine.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, token string) (*tokenauth.Claims, error)
}

type claimsContextKey struct{}

// ClaimsFromContext returns the claims attached by RequireAccess.
func ClaimsFromContext(ctx context.Context) (*tokenauth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*tokenauth.Claims)
	return claims, ok
}

// RequireAccess rejects requests without a valid access token and passes the rest
// to next with the token's claims in the request context.
func RequireAccess(v AccessValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				WriteError(w, tokenauth.ErrEngineNotReady)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, tokenauth.ErrTokenRequired)
				return
			}

			claims, err := v.ValidateAccess(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken accepts "Bearer <token>" with a case-insensitive scheme.
func bearerToken(value string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(value), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}

// StatusFor maps an engine error to its HTTP status code.
func StatusFor(err error) int {
	switch tokenauth.KindOf(err) {
	case tokenauth.KindBadRequest:
		return http.StatusBadRequest
	case tokenauth.KindUnauthorized:
		return http.StatusUnauthorized
	case tokenauth.KindForbidden:
		return http.StatusForbidden
	case tokenauth.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as {"message": ...}. Internal errors never expose their cause.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = tokenauth.ErrInternal.Error()
	}
	WriteJSON(w, status, map[string]string{"message": msg})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
