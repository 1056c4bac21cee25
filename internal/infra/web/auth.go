package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errMissingToken = errors.New("missing token")

// AuthManager mints and verifies the HS256 bearer tokens of the admin API.
type AuthManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthManager(secret string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled is false when no secret is configured; the admin API then refuses every request.
func (a *AuthManager) Enabled() bool { return len(a.secret) > 0 }

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint signs an admin token for subject.
func (a *AuthManager) Mint(subject string) (string, error) {
	if !a.Enabled() {
		return "", errors.New("admin secret not configured")
	}
	now := a.now()
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   subject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*AdminClaims, error) {
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, errMissingToken
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !tkn.Valid || claims.Role != "admin" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Middleware rejects requests without a valid admin token.
func (a *AuthManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			writeError(w, http.StatusForbidden, "admin api disabled")
			return
		}
		if _, err := a.ParseFromRequest(r); err != nil {
			if errors.Is(err, errMissingToken) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
