package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/campuseats/campus-eats/utils"
)

// WebSocketAuthMiddleware authenticates the upgrade request. Browsers
// cannot set headers on websocket dials, so the token travels as a query
// parameter.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		if claims.OutletID != nil {
			c.Set("outlet_id", *claims.OutletID)
		}

		c.Next()
	}
}
