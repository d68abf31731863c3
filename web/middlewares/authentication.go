package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/security"
	"axiapac.com/punchclock/web/common"
)

const (
	ClaimsKey   = "claims"
	TokenKey    = "token"
	TokenCookie = "axiapac.ApplicationCookie"
)

// IdentityHook is told about every authenticated caller. A non-nil error
// aborts the request.
type IdentityHook func(c *gin.Context, claims *security.IdentityClaims, token string) error

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		cookie, err := c.Cookie(TokenCookie)
		if err != nil || cookie == "" {
			return "", false
		}
		return cookie, true
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Authentication checks for a valid Bearer token
func Authentication(jwtSecret []byte, onIdentity IdentityHook) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("missing bearer token"))
			return
		}

		claims, err := security.ParseIdentityToken(tokenStr, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("invalid or expired token"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, tokenStr)

		if onIdentity != nil {
			if err := onIdentity(c, claims, tokenStr); err != nil {
				c.AbortWithStatusJSON(http.StatusBadGateway, common.NewErrorResponse(err.Error()))
				return
			}
		}

		c.Next()
	}
}

func Claims(c *gin.Context) *security.IdentityClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*security.IdentityClaims)
	return claims
}
