package middleware

import (
	"strings"

	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/response"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthMiddleware requires a valid bearer access token and stores its principal.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		principal, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole rejects principals whose role is not in roles.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if principal.Role == r {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient role")
	}
}

// GetPrincipal returns the authenticated principal of the request.
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}
