package middlewares

import (
	"net/http"

	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userClaims, exists := ctx.Get("user")
		if !exists {
			AbortWithEnvelope(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "User not found in context", nil)
			return
		}

		claims := userClaims.(jwt.MapClaims)
		role, ok := claims["role"].(string)
		if !ok || role != models.RoleAdmin {
			AbortWithEnvelope(ctx, http.StatusForbidden, "FORBIDDEN", "Admin access required", nil)
			return
		}

		ctx.Next()
	}
}
