package middlewares

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
)

const (
	principalKey   = "principal"
	tokenKey       = "token"
	tokenExpiryKey = "token_expiry"
)

// Principal is the authenticated staff member behind a request.
type Principal struct {
	StaffID      uint
	RestaurantID uint
	Role         models.Role
}

// CurrentPrincipal returns the principal set by the auth middlewares.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// CurrentToken returns the raw token and its expiry, used by logout.
func CurrentToken(c *gin.Context) (string, time.Time) {
	return c.GetString(tokenKey), c.GetTime(tokenExpiryKey)
}

func authenticate(c *gin.Context, token string) bool {
	claims, err := utils.ValidateToken(token)
	if err != nil || claims == nil || claims.StaffID == 0 {
		utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid or expired token"), nil)
		c.Abort()
		return false
	}

	c.Set(principalKey, Principal{
		StaffID:      claims.StaffID,
		RestaurantID: claims.RestaurantID,
		Role:         models.Role(claims.Role),
	})
	c.Set(tokenKey, token)
	if claims.ExpiresAt != nil {
		c.Set(tokenExpiryKey, claims.ExpiresAt.Time)
	}
	return true
}

// AuthMiddleware requires a "Bearer" token in the Authorization header.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", errors.New("authorization header missing"), nil)
			c.Abort()
			return
		}
		if authenticate(c, strings.TrimPrefix(authHeader, "Bearer ")) {
			c.Next()
		}
	}
}
