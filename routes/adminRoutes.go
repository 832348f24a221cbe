package routes

import (
	"github.com/b9aurav/marketplace-api-sub000/controllers"
	"github.com/b9aurav/marketplace-api-sub000/middlewares"
	"github.com/gin-gonic/gin"
)

// AdminRoutes mounts the admin surface under /api/admin. Every route goes
// through the error envelope, token auth, and the admin role check.
func AdminRoutes(server *gin.Engine) {
	admin := server.Group("/api/admin",
		middlewares.ErrorHandler(),
		middlewares.RequireAuth(),
		middlewares.RequireAdmin(),
	)

	orders := admin.Group("/orders")
	{
		orders.GET("", controllers.AdminListOrders)
		orders.GET("/analytics-overview", controllers.AdminOrderAnalytics)
		orders.GET("/:id", controllers.AdminGetOrder)
		orders.PATCH("/:id/status", controllers.AdminUpdateOrderStatus)
		orders.POST("/:id/refund", controllers.AdminProcessRefund)
	}

	products := admin.Group("/products")
	{
		products.GET("", controllers.AdminListProducts)
		products.POST("", controllers.AdminCreateProduct)
		products.GET("/analytics-overview", controllers.AdminProductAnalytics)
		products.POST("/bulk-action", controllers.AdminBulkProductAction)
		products.POST("/images", controllers.UploadProductImages)
		products.GET("/:id", controllers.AdminGetProduct)
		products.PUT("/:id", controllers.AdminUpdateProduct)
		products.DELETE("/:id", controllers.AdminDeleteProduct)
	}

	users := admin.Group("/users")
	{
		users.GET("", controllers.AdminListUsers)
		users.GET("/analytics-overview", controllers.AdminUserAnalytics)
		users.GET("/:id", controllers.AdminGetUser)
		users.PATCH("/:id/status", controllers.AdminUpdateUserStatus)
	}

	dashboard := admin.Group("/dashboard")
	{
		dashboard.GET("/metrics", controllers.AdminDashboardMetrics)
		dashboard.GET("/sales-analytics", controllers.AdminSalesAnalytics)
	}

	admin.GET("/audit-logs", controllers.AdminListAuditLogs)
}
