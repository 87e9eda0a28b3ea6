package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streamhive/vidtube/utils"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextEmail    = "email"
)

// AuthMiddleware verifies the access token before any protected handler
// runs. The token comes from the accessToken cookie or a Bearer header.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("accessToken")
		if err != nil || tokenStr == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				tokenStr = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if tokenStr == "" {
			abortWithError(c, utils.Unauthorized("missing access token"))
			return
		}

		claims, err := tokens.VerifyAccess(tokenStr)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
