package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
)

// RequireRoles lets the request through only for the listed roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("unauthorized"), nil)
			c.Abort()
			return
		}
		if !HasRole(p.Role, roles...) {
			utils.RespondErrorCode(c, http.StatusForbidden, "forbidden", fmt.Errorf("%s access not allowed", p.Role), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func HasRole(role models.Role, allowed ...models.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
