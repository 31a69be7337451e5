// Package auth authenticates API requests with HS256 bearer tokens.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	applog "saldo/internal/log"
)

type contextKey struct{}

var (
	ErrMissingHeader = errors.New("header not provided")
	ErrInvalidFormat = errors.New("invalid token format")
	ErrMissingToken  = errors.New("token not provided")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims is the token payload. Only the numeric user id is required.
type Claims struct {
	UserID int64  `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies bearer tokens signed with a shared secret.
type Authenticator struct {
	secret []byte
	onFail func(http.ResponseWriter, *http.Request, error)
}

// NewAuthenticator builds an Authenticator. onFail renders the 401 response;
// nil falls back to a plain JSON body.
func NewAuthenticator(secret string, onFail func(http.ResponseWriter, *http.Request, error)) *Authenticator {
	if onFail == nil {
		onFail = writeUnauthorized
	}
	return &Authenticator{secret: []byte(secret), onFail: onFail}
}

// Verify parses the Authorization header value and returns the user id.
func (a *Authenticator) Verify(header string) (int64, error) {
	if header == "" {
		return 0, ErrMissingHeader
	}
	scheme, token, _ := strings.Cut(header, " ")
	if scheme != "Bearer" {
		return 0, ErrInvalidFormat
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims.UserID, nil
}

// Middleware rejects unauthenticated requests and stores the user id in the
// request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.Verify(r.Header.Get("Authorization"))
		if err != nil {
			slog.WarnContext(r.Context(), "Authentication failed",
				applog.FieldComponent, applog.ComponentAuth,
				applog.FieldErrorType, applog.ErrorTypeAuth,
				applog.FieldPath, r.URL.Path,
				applog.FieldError, err)
			a.onFail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// Sign issues a token for userID that expires after ttl.
func (a *Authenticator) Sign(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// WithUserID returns ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":    Message(err),
		"statusCode": http.StatusUnauthorized,
		"code":       "UNAUTHORIZED",
	})
}

// Message is the client-facing text for an authentication failure.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingHeader):
		return "Header not provided"
	case errors.Is(err, ErrInvalidFormat):
		return "Invalid token format"
	case errors.Is(err, ErrMissingToken):
		return "Token not provided"
	default:
		return "Invalid token"
	}
}
