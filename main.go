package main

import (
	"os"
	"strings"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/controllers"
	"github.com/b9aurav/marketplace-api-sub000/initializers"
	"github.com/b9aurav/marketplace-api-sub000/routes"
	"github.com/b9aurav/marketplace-api-sub000/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func init() {
	initializers.LoadEnv()
	initializers.ConnectToDB()
	initializers.ConnectToCache()
	initializers.SyncDatabase()
}

func allowedOrigins() []string {
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		return strings.Split(raw, ",")
	}
	return []string{"http://localhost:4200"}
}

func main() {
	controllers.Setup(initializers.DB, initializers.Cache, services.NewRestyGateway())

	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.DefaultRoutes(server)
	routes.AuthRoutes(server)
	routes.ProductRoutes(server)
	routes.CartRoutes(server)
	routes.OrderRoutes(server)
	routes.AdminRoutes(server)

	server.Run()
}
