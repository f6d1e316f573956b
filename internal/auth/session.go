package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionCookie     = "session"
	DefaultSessionTTL = 24 * time.Hour
)

var ErrNoSession = errors.New("no valid session")

// Identity is the authenticated user attached to a request.
type Identity struct {
	UserId uuid.UUID
}

type sessionClaims struct {
	UserId string `json:"user_id"`
	jwt.RegisteredClaims
}

type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewSessionManager(secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, secure: secure}, nil
}

// GenerateSecret returns a random hex secret. Sessions signed with it do not
// survive a restart.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error generating session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (m *SessionManager) Token(userId uuid.UUID) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserId: userId.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *SessionManager) Parse(token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrNoSession
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return Identity{}, ErrNoSession
	}

	userId, err := uuid.Parse(claims.UserId)
	if err != nil {
		return Identity{}, ErrNoSession
	}

	return Identity{UserId: userId}, nil
}

// Start issues a session for the user as an HttpOnly cookie.
func (m *SessionManager) Start(w http.ResponseWriter, userId uuid.UUID) error {
	token, err := m.Token(userId)
	if err != nil {
		return fmt.Errorf("error signing session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *SessionManager) End(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) Identity(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return Identity{}, ErrNoSession
	}
	return m.Parse(cookie.Value)
}

func (m *SessionManager) IsAuthenticated(r *http.Request) bool {
	_, err := m.Identity(r)
	return err == nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// RequireSession rejects requests without a valid session with 401 and
// attaches the identity to the request context otherwise.
func (m *SessionManager) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.Identity(r)
		if err != nil {
			slog.Info("rejecting unauthenticated request", "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
