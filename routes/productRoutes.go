package routes

import (
	"github.com/b9aurav/marketplace-api-sub000/controllers"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(server *gin.Engine) {
	server.GET("/product", controllers.GetProducts)
	server.GET("/product/:id", controllers.GetProduct)
}
