package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/initializers"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"
)

func getPaymentAccessToken() (string, error) {
	consumerKey := os.Getenv("PAYMENT_CONSUMER_KEY")
	consumerSecret := os.Getenv("PAYMENT_CONSUMER_SECRET")

	if consumerKey == "" || consumerSecret == "" {
		return "", fmt.Errorf("payment consumer credentials are not set")
	}

	requestBody := map[string]string{
		"consumer_key":    consumerKey,
		"consumer_secret": consumerSecret,
	}

	client := resty.New()
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(requestBody).
		Post(os.Getenv("PAYMENT_GATEWAY_URL") + "/api/Auth/RequestToken")

	if err != nil {
		return "", err
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("payment token request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var response map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	token, ok := response["token"].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("token not found in response")
	}

	return token, nil
}

// CreateOrder turns the user's cart into a pending order and hands the
// payment off to the gateway. Stock is reserved inside the same
// transaction that creates the order.
func CreateOrder(ctx *gin.Context) {
	var body struct {
		UserId        int     `json:"userId" binding:"required"`
		AddressId     *uint   `json:"addressId"`
		PaymentMethod string  `json:"paymentMethod" binding:"required"`
		Discount      float64 `json:"discount"`
		Fees          float64 `json:"fees"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		utils.Log.WithError(err).Warn("Invalid checkout payload")
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	var user models.User
	if err := initializers.DB.First(&user, body.UserId).Error; err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, "User not found")
		return
	}

	var cart models.Cart
	if err := initializers.DB.Preload("Items").Where("user_id = ?", body.UserId).First(&cart).Error; err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Cart is empty")
		return
	}
	if len(cart.Items) == 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, "Cart is empty")
		return
	}

	var order models.Order
	err := initializers.DB.Transaction(func(tx *gorm.DB) error {
		var total float64
		items := make([]models.OrderItem, 0, len(cart.Items))

		for _, cartItem := range cart.Items {
			var product models.Product
			if err := tx.First(&product, cartItem.ProductId).Error; err != nil {
				return fmt.Errorf("product %d no longer exists", cartItem.ProductId)
			}
			if product.Stock < cartItem.ProductQuantity {
				return fmt.Errorf("insufficient stock for %s", product.Name)
			}

			if err := tx.Model(&models.Product{}).
				Where("id = ?", product.ID).
				Update("stock", gorm.Expr("stock - ?", cartItem.ProductQuantity)).Error; err != nil {
				return err
			}

			total += product.Price * float64(cartItem.ProductQuantity)
			items = append(items, models.OrderItem{
				ProductId: cartItem.ProductId,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  cartItem.ProductQuantity,
			})
		}

		order = models.Order{
			UserID:        body.UserId,
			AddressID:     body.AddressId,
			Total:         total,
			Discount:      body.Discount,
			Fees:          body.Fees,
			NetAmount:     total - body.Discount + body.Fees,
			Status:        models.OrderStatusPending,
			PaymentMethod: body.PaymentMethod,
			OrderItems:    items,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Checkout empties the cart.
		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		utils.Log.WithError(err).Warn("Checkout failed")
		sendErrorResponse(ctx, http.StatusBadRequest, err.Error())
		return
	}

	token, err := getPaymentAccessToken()
	if err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Payment authentication failed")
		return
	}

	notificationID := os.Getenv("PAYMENT_NOTIFICATION_ID")
	if notificationID == "" {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Missing payment configuration")
		return
	}

	gatewayOrder := map[string]any{
		"id":              fmt.Sprintf("ORDER-%d", order.ID),
		"currency":        os.Getenv("PAYMENT_CURRENCY"),
		"amount":          order.NetAmount,
		"description":     fmt.Sprintf("Payment for order #%d", order.ID),
		"callback_url":    os.Getenv("PAYMENT_CALLBACK_URL"),
		"notification_id": notificationID,
		"billing_address": map[string]any{
			"email_address": user.Email,
			"phone_number":  user.Phone,
			"first_name":    user.Fullname,
		},
	}

	resp, err := resty.New().SetTimeout(30 * time.Second).
		R().
		SetHeaders(map[string]string{
			"Authorization": "Bearer " + token,
			"Accept":        "application/json",
			"Content-Type":  "application/json",
		}).
		SetBody(gatewayOrder).
		Post(os.Getenv("PAYMENT_GATEWAY_URL") + "/api/Transactions/SubmitOrderRequest")

	if err != nil || resp.StatusCode() != 200 {
		utils.Log.WithError(err).Error("Payment gateway error")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to initiate payment")
		return
	}

	var gatewayResp map[string]any
	if err := json.Unmarshal(resp.Body(), &gatewayResp); err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Invalid response from payment gateway")
		return
	}

	redirectURL, rOK := gatewayResp["redirect_url"].(string)
	orderTrackingID, tOK := gatewayResp["order_tracking_id"].(string)
	if !rOK || !tOK || redirectURL == "" || orderTrackingID == "" {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Incomplete response from payment gateway")
		return
	}

	if err := initializers.DB.Model(&order).Updates(map[string]any{
		"transaction_id": orderTrackingID,
		"updated_at":     time.Now(),
	}).Error; err != nil {
		utils.Log.WithField("order_id", order.ID).WithField("transaction_id", orderTrackingID).
			Error("Order created, but transaction ID not saved")
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message":           "Order created successfully. Redirect user to payment.",
		"redirect_url":      redirectURL,
		"order_id":          order.ID,
		"order_tracking_id": orderTrackingID,
	})
}

// HandlePaymentIPN receives the gateway's payment notification, confirms
// the transaction status with the gateway, and moves the order out of
// pending.
func HandlePaymentIPN(ctx *gin.Context) {
	var trackingId, merchantRef string

	if ctx.Request.Method == http.MethodPost {
		var payload struct {
			OrderTrackingId        string `json:"OrderTrackingId"`
			OrderMerchantReference string `json:"OrderMerchantReference"`
		}

		if err := ctx.BindJSON(&payload); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		trackingId = payload.OrderTrackingId
		merchantRef = payload.OrderMerchantReference
	} else {
		trackingId = ctx.Query("orderTrackingId")
		merchantRef = ctx.Query("orderMerchantReference")
	}

	if trackingId == "" || merchantRef == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing parameters"})
		return
	}

	token, err := getPaymentAccessToken()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication with payment gateway failed"})
		return
	}

	statusURL := os.Getenv("PAYMENT_GATEWAY_URL") + "/api/Transactions/GetTransactionStatus?orderTrackingId=" + trackingId

	resp, err := resty.New().R().
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("Accept", "application/json").
		Get(statusURL)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check payment status"})
		return
	}

	var statusResp map[string]any
	if err := json.Unmarshal(resp.Body(), &statusResp); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid response from payment gateway"})
		return
	}

	if errObj, exists := statusResp["error"]; exists && errObj != nil {
		if errMap, ok := errObj.(map[string]interface{}); ok {
			if errMap["code"] != nil || errMap["message"] != nil || errMap["error_type"] != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error in transaction response"})
				return
			}
		}
	}

	statusDesc := fmt.Sprint(statusResp["payment_status_description"])

	// A completed payment is the only transition the gateway can drive;
	// failures leave the order pending so the customer can retry.
	if statusDesc == "Completed" || statusDesc == "COMPLETED" {
		if err := initializers.DB.Model(&models.Order{}).
			Where("transaction_id = ? AND status = ?", trackingId, models.OrderStatusPending).
			Update("status", models.OrderStatusPaid).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"orderNotificationType":  "IPNCHANGE",
		"orderTrackingId":        trackingId,
		"orderMerchantReference": merchantRef,
		"status":                 200,
	})
}

func GetOrdersByCustomerId(ctx *gin.Context) {
	userId, err := strconv.Atoi(ctx.Param("userId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse userId")
		return
	}

	sortOrder := ctx.DefaultQuery("sort", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	query := initializers.DB.Preload("OrderItems").Where("user_id = ?", userId)

	if search := ctx.Query("search"); search != "" {
		query = query.Where("id LIKE ?", "%"+search+"%")
	}

	var orders []models.Order
	if result := query.Order("created_at " + sortOrder).Find(&orders); result.Error != nil {
		utils.Log.WithError(result.Error).Error("Failed to fetch orders")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch orders.")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"orders": orders,
	})
}

func GetOrderById(ctx *gin.Context) {
	orderId, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	var order models.Order
	result := initializers.DB.Preload("OrderItems").First(&order, orderId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Order not found")
		} else {
			utils.Log.WithError(result.Error).Error("Failed to fetch order")
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch order.")
		}
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"order": order,
	})
}
