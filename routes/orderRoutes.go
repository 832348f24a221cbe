package routes

import (
	"github.com/b9aurav/marketplace-api-sub000/controllers"
	"github.com/b9aurav/marketplace-api-sub000/middlewares"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine) {
	// The IPN endpoint is called by the payment gateway, so it stays open.
	server.POST("/order/ipn", controllers.HandlePaymentIPN)
	server.GET("/order/ipn", controllers.HandlePaymentIPN)

	order := server.Group("/", middlewares.RequireAuth())
	{
		order.POST("/order", controllers.CreateOrder)
		order.GET("/order/:orderId", controllers.GetOrderById)
		order.GET("/user/:userId/orders", controllers.GetOrdersByCustomerId)
	}
}
