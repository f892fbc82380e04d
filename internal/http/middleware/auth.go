// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. The services trust whatever user
// id the transport hands them, so this is the single place that decides it:
//
//  1. Authorization: Bearer <HS256 JWT> when a signing secret is configured
//     (the "sub" claim is the user id; an invalid token is rejected with 401)
//  2. the X-User-ID header, when header identities are allowed
//  3. the configured fallback identity (e.g. "demo-user" in development)
//
// The resolved id is stored in the Gin context under "userID", the key the
// logging and rate-limiting middleware already read.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey    = "userID"
	userIDHeader = "X-User-ID"

	// DefaultUserID is the development fallback identity.
	DefaultUserID = "demo-user"
)

// maxUserIDLen matches the users.id column width.
const maxUserIDLen = 64

// AuthOptions configures Identity.
type AuthOptions struct {
	// JWTSecret enables bearer tokens when non-empty.
	JWTSecret string
	// AllowHeader accepts X-User-ID as an identity.
	AllowHeader bool
	// Fallback is used when nothing else identifies the caller. Empty means
	// anonymous requests are rejected with 401.
	Fallback string
	// PublicPaths are path prefixes served to anonymous callers, such as
	// health checks and metrics scrapes.
	PublicPaths []string
}

// Identity resolves the caller and stores the id under "userID".
func Identity(opts AuthOptions) gin.HandlerFunc {
	secret := []byte(opts.JWTSecret)
	return func(c *gin.Context) {
		if raw, ok := bearer(c.GetHeader("Authorization")); ok && len(secret) > 0 {
			uid, err := ParseToken(secret, raw)
			if err != nil {
				abortUnauthorized(c, "invalid bearer token")
				return
			}
			c.Set(userIDKey, uid)
			c.Next()
			return
		}

		if opts.AllowHeader {
			if h := strings.TrimSpace(c.GetHeader(userIDHeader)); h != "" {
				if len(h) > maxUserIDLen {
					abortUnauthorized(c, "user id too long")
					return
				}
				c.Set(userIDKey, h)
				c.Next()
				return
			}
		}

		switch {
		case opts.Fallback != "":
			c.Set(userIDKey, opts.Fallback)
		case !isPublic(c.Request.URL.Path, opts.PublicPaths):
			abortUnauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// UserID returns the identity resolved by Identity, or DefaultUserID when
// the middleware did not run.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return DefaultUserID
}

// SignToken issues an HS256 token for userID, valid for ttl.
func SignToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates an HS256 token and returns its subject.
func ParseToken(secret []byte, raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" || len(sub) > maxUserIDLen {
		return "", errors.New("token subject missing or too long")
	}
	return sub, nil
}

func bearer(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="meals"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
