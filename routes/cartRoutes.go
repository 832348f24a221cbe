package routes

import (
	"github.com/b9aurav/marketplace-api-sub000/controllers"
	"github.com/b9aurav/marketplace-api-sub000/middlewares"
	"github.com/gin-gonic/gin"
)

func CartRoutes(server *gin.Engine) {
	cart := server.Group("/cart", middlewares.RequireAuth())
	{
		cart.POST("", controllers.CreateCartItem)
		cart.GET("/:userId", controllers.GetCart)
		cart.DELETE("/item/:id", controllers.DeleteCartItem)
	}
}
