package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"matterlab/internal/pkg/jwt"
	"matterlab/pkg/constants"
	pkgErrors "matterlab/pkg/errors"
	"matterlab/pkg/responses"
)

// AppsJWTMiddleware 校验 Mattermost Apps 调用携带的 JWT，secret 为空时不校验
func AppsJWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader(constants.HeaderAppsAuthorization)
		if authHeader == "" {
			responses.Error(c, pkgErrors.New(pkgErrors.CodeUnauthorized, "缺少 "+constants.HeaderAppsAuthorization+" Header"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
			responses.Error(c, pkgErrors.New(pkgErrors.CodeUnauthorized, "Authorization格式错误"))
			c.Abort()
			return
		}

		claims, err := jwt.ParseAppsToken(strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix), secret)
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyAppsClaim, claims)
		c.Next()
	}
}
