package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"Backstage_Jobs/internal/pkg"
	"Backstage_Jobs/internal/service"
)

const (
	ContextUserIDKey      = "user_id"
	ContextAccountTypeKey = "account_type"
)

func bearer(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authenticate checks the JWT and that it is still the user's live session token.
func authenticate(c *gin.Context, issuer *pkg.TokenIssuer, tokens service.TokenStore, tokenStr string) (*pkg.Claims, string) {
	claims, err := issuer.ParseAccess(tokenStr)
	if err != nil {
		return nil, "invalid or expired token"
	}
	live, err := tokens.Get(c.Request.Context(), claims.UserID)
	if err != nil || live != tokenStr {
		return nil, "account has been logged in elsewhere"
	}
	if err := tokens.Extend(c.Request.Context(), claims.UserID); err != nil {
		return nil, "session store unavailable"
	}
	return claims, ""
}

// Auth rejects the request with 401 unless it carries a live access token.
func Auth(issuer *pkg.TokenIssuer, tokens service.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "msg": "missing or malformed authorization header"})
			return
		}
		claims, msg := authenticate(c, issuer, tokens, tokenStr)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "msg": msg})
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextAccountTypeKey, claims.AccountType)
		c.Next()
	}
}

// OptionalAuth identifies the caller when it can and lets anonymous requests through.
func OptionalAuth(issuer *pkg.TokenIssuer, tokens service.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearer(c); ok {
			if claims, _ := authenticate(c, issuer, tokens, tokenStr); claims != nil {
				c.Set(ContextUserIDKey, claims.UserID)
				c.Set(ContextAccountTypeKey, claims.AccountType)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated caller, or 0 for anonymous requests.
func UserID(c *gin.Context) uint64 {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(uint64)
	return id
}

func AccountType(c *gin.Context) string {
	return c.GetString(ContextAccountTypeKey)
}
