package routes

import (
	"github.com/b9aurav/marketplace-api-sub000/controllers"
	"github.com/gin-gonic/gin"
)

func DefaultRoutes(server *gin.Engine) {
	server.GET("/", controllers.GetHome)
}
