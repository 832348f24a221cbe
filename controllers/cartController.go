package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/b9aurav/marketplace-api-sub000/initializers"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// getOrCreateCart returns the user's cart, creating one on first use.
func getOrCreateCart(userId int) (models.Cart, error) {
	var cart models.Cart
	err := initializers.DB.Where("user_id = ?", userId).First(&cart).Error
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return cart, err
	}

	cart = models.Cart{UserID: userId}
	if err := initializers.DB.Create(&cart).Error; err != nil {
		return cart, err
	}
	return cart, nil
}

func CreateCartItem(ctx *gin.Context) {
	var body struct {
		UserId    int `json:"userId" binding:"required"`
		ProductId int `json:"productId" binding:"required"`
		Quantity  int `json:"quantity"`
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		utils.Log.WithError(err).Warn("Invalid cart item payload")
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid input")
		return
	}
	if body.Quantity < 1 {
		body.Quantity = 1
	}

	var product models.Product
	if err := initializers.DB.Preload("Images").First(&product, body.ProductId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Product not found")
		} else {
			utils.Log.WithError(err).Error("Unable to fetch product")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		}
		return
	}
	if product.Status != models.ProductStatusActive {
		sendErrorResponse(ctx, http.StatusBadRequest, "Product is not available")
		return
	}

	cart, err := getOrCreateCart(body.UserId)
	if err != nil {
		utils.Log.WithError(err).Error("Unable to load cart")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to load cart")
		return
	}

	// If the product is already in this cart, bump the quantity instead of
	// inserting a duplicate row.
	var existingCartItem models.CartItem
	err = initializers.DB.
		Where("cart_id = ? AND product_id = ?", cart.ID, body.ProductId).
		First(&existingCartItem).Error

	if err == nil {
		existingCartItem.ProductQuantity += body.Quantity

		if err := initializers.DB.Save(&existingCartItem).Error; err != nil {
			utils.Log.WithError(err).Error("Unable to update cart item quantity")
			sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to update cart item quantity.")
			return
		}

		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"message": "Cart item quantity updated",
			"id":      existingCartItem.ID,
		})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Log.WithError(err).Error("Unable to fetch cart item")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to fetch cart item")
		return
	}

	imageUrl := ""
	if len(product.Images) > 0 {
		imageUrl = product.Images[0].Url
	}

	cartItem := models.CartItem{
		CartID:          int(cart.ID),
		ProductId:       body.ProductId,
		ProductName:     product.Name,
		ProductPrice:    product.Price,
		ProductQuantity: body.Quantity,
		ProductImageUrl: imageUrl,
	}
	if err := initializers.DB.Create(&cartItem).Error; err != nil {
		utils.Log.WithError(err).Error("Unable to create cart item")
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to create cart item")
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"message": cartItem.ProductName + " added to cart",
		"id":      cartItem.ID,
	})
}

func GetCart(ctx *gin.Context) {
	userId, err := strconv.Atoi(ctx.Param("userId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var cart models.Cart
	result := initializers.DB.
		Where("user_id = ?", userId).
		Preload("Items").
		First(&cart)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Cart not found")
		} else {
			utils.Log.WithError(result.Error).Error("Failed to fetch cart")
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch cart")
		}
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cart})
}

func DeleteCartItem(ctx *gin.Context) {
	itemId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid cart item ID")
		return
	}

	result := initializers.DB.Delete(&models.CartItem{}, itemId)
	if result.Error != nil {
		utils.Log.WithError(result.Error).Error("Failed to remove cart item")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to remove cart item")
		return
	}
	if result.RowsAffected == 0 {
		sendErrorResponse(ctx, http.StatusNotFound, "Cart item not found")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Cart item removed"})
}
