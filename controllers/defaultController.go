package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to the Marketplace API. Enjoy seamless interaction with this API.

The following are the endpoints for this API:

AUTH
- POST "/signup" - Create user account
- POST "/login" - Access user account
- POST "/verify-email/:activationToken" - Activate user account
- POST "/forgot-password" - Request password reset
- POST "/reset-password/:resetToken" - Reset user password

PRODUCT
- GET "/product" - Get active products
- GET "/product/:id" - Get product by ID

CART
- POST "/cart" - Add item to cart
- GET "/cart/:userId" - Get user cart
- DELETE "/cart/item/:id" - Remove cart item

ORDER
- POST "/order" - Checkout current cart
- GET "/user/:userId/orders" - Get orders for a specific user
- GET "/order/:orderId" - Get order by ID
- POST "/order/ipn" - Payment gateway notification

ADMIN (requires admin token, under /api/admin)
- Orders: list, detail, status updates, refunds, analytics
- Products: CRUD, bulk actions, image uploads, analytics
- Users: list, detail, status updates, analytics
- Dashboard: metrics, sales analytics
- Audit logs`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
