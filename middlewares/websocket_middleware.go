package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
)

// WebSocketAuthMiddleware reads the token from the "token" query parameter,
// since browsers cannot set headers on a websocket upgrade.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", errors.New("token missing"), nil)
			c.Abort()
			return
		}
		if authenticate(c, token) {
			c.Next()
		}
	}
}
