package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/middleware"
)

const maxBodyBytes = 1 << 20

// Service is the engine surface the handlers need. *tokenauth.Engine satisfies it.
type Service interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccess(ctx context.Context, token string) (*tokenauth.Claims, error)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type profileResponse struct {
	Message string            `json:"message"`
	User    *tokenauth.Claims `json:"user"`
}

// NewHandler returns the routed handler wrapped in request logging.
func NewHandler(svc Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", registerHandler(svc))
	mux.HandleFunc("POST /login", loginHandler(svc))
	mux.HandleFunc("POST /token", tokenHandler(svc))
	mux.HandleFunc("DELETE /logout", logoutHandler(svc))
	mux.Handle("GET /profile", middleware.RequireAccess(svc)(http.HandlerFunc(profileHandler)))

	return requestLogger(logger, mux)
}

func registerHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentialsRequest
		if !decode(w, r, &body) {
			return
		}

		if err := svc.Register(withClientIP(r), body.Username, body.Password); err != nil {
			middleware.WriteError(w, err)
			return
		}

		middleware.WriteJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
	}
}

func loginHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentialsRequest
		if !decode(w, r, &body) {
			return
		}

		access, refresh, err := svc.Login(withClientIP(r), body.Username, body.Password)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}

		middleware.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: access, RefreshToken: refresh})
	}
}

// tokenHandler answers a bare 401 when no token was presented, including an empty
// or unreadable body.
func tokenHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := decodeToken(w, r)

		access, err := svc.Refresh(withClientIP(r), body.Token)
		if err != nil {
			if tokenauth.KindOf(err) == tokenauth.KindUnauthorized {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			middleware.WriteError(w, err)
			return
		}

		middleware.WriteJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
	}
}

// logoutHandler answers 204 for any token, known or not. An unreadable body is
// treated as an absent token.
func logoutHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := decodeToken(w, r)

		if err := svc.Logout(withClientIP(r), body.Token); err != nil {
			middleware.WriteError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func profileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, tokenauth.ErrTokenRequired)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, profileResponse{
		Message: fmt.Sprintf("Welcome, %s! This is protected data.", claims.Name),
		User:    claims,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request body"})
		return false
	}
	return true
}

// decodeToken never fails; a body that does not decode yields an empty token.
func decodeToken(w http.ResponseWriter, r *http.Request) tokenRequest {
	var body tokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		return tokenRequest{}
	}
	return body
}

func withClientIP(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return tokenauth.WithClientIP(r.Context(), host)
}
