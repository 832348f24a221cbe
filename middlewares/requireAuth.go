package middlewares

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RequireAuth validates the bearer token and stores its claims in the context
// under "user".
func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			AbortWithEnvelope(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			AbortWithEnvelope(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			AbortWithEnvelope(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token claims", nil)
			return
		}

		ctx.Set("user", claims)
		ctx.Next()
	}
}
