package models

import "gorm.io/gorm"

type CartItem struct {
	gorm.Model
	CartID          int     `json:"cartId"`
	ProductId       int     `json:"productId"`
	ProductName     string  `json:"productName"`
	ProductPrice    float64 `json:"productPrice"`
	ProductQuantity int     `json:"productQuantity"`
	ProductImageUrl string  `json:"productImageUrl"`
}

type Cart struct {
	gorm.Model
	UserID int        `json:"userId"`
	Items  []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}
