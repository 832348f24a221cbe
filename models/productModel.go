package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
	ProductStatusDraft    = "draft"
)

type Category struct {
	gorm.Model
	Name     string    `json:"name" binding:"required"`
	ParentID *uint     `json:"parentId"`
	Parent   *Category `json:"-" gorm:"foreignKey:ParentID"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

type Product struct {
	gorm.Model
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Price        float64        `json:"price"`
	Stock        int            `json:"stock"`
	MinimumStock int            `json:"minimumStock"`
	Status       string         `json:"status"`
	Featured     bool           `json:"featured"`
	Tags         datatypes.JSON `json:"tags"`
	SKU          string         `json:"sku" gorm:"uniqueIndex"`
	CategoryID   uint           `json:"categoryId"`
	SalesCount   int            `json:"salesCount"`
	Rating       float64        `json:"rating"`
	Images       []ProductImage `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// LowStock reports whether the product is running low without being sold out.
func (p Product) LowStock() bool {
	return p.Stock > 0 && p.Stock <= p.MinimumStock
}

type ProductImage struct {
	gorm.Model
	Url       string `json:"url" binding:"required"`
	ProductID int    `json:"productId" binding:"required"`
}
