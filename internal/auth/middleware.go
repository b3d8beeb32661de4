package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key the Bearer middleware stores claims under.
const ClaimsKey = "claims"

// Bearer enforces bearer JWT tokens signed with HS256. Any missing,
// malformed or expired token gets a 401; the admin client reacts to that
// status by clearing its stored credential.
func Bearer(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects authenticated requests whose role is not listed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsAny, ok := c.Get(ClaimsKey)
		claims, cast := claimsAny.(Claims)
		if !ok || !cast {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// CurrentClaims returns the claims the Bearer middleware attached, if any.
func CurrentClaims(c *gin.Context) (Claims, bool) {
	claimsAny, ok := c.Get(ClaimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, cast := claimsAny.(Claims)
	return claims, cast
}
