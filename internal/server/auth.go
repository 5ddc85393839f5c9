package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
)

type AuthConfig struct {
	// JWTSecret enables bearer auth. Empty means open mode: the principal
	// comes from headers with local defaults, for development workspaces.
	JWTSecret string
	Logger    *log.Logger
}

type Principal struct {
	UserID string
	Role   string
}

type principalKey struct{}

func (c AuthConfig) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func requirePrincipal(ctx context.Context) (Principal, huma.StatusError) {
	if p, ok := principalFromContext(ctx); ok && p.UserID != "" {
		return p, nil
	}
	return Principal{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Middleware resolves the principal for every request.
func (c AuthConfig) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := c.principal(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"unauthorized","message":"invalid or missing token"}}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

func (c AuthConfig) principal(r *http.Request) (Principal, bool) {
	header := r.Header.Get("Authorization")
	if c.JWTSecret == "" {
		// Open mode: headers with local defaults.
		p := Principal{
			UserID: r.Header.Get("X-User-Id"),
			Role:   r.Header.Get("X-User-Role"),
		}
		if p.UserID == "" {
			p.UserID = "local-user"
		}
		if p.Role == "" {
			p.Role = "inspector"
		}
		return p, true
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return Principal{}, false
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(c.JWTSecret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		c.logger().Printf("auth: token rejected: %v", err)
		return Principal{}, false
	}
	role := claims.Role
	if role == "" {
		role = "inspector"
	}
	return Principal{UserID: claims.Subject, Role: role}, true
}

// MintToken signs a development token for a user and role.
func (c AuthConfig) MintToken(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.JWTSecret))
}
