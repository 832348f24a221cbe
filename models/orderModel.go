package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

type Order struct {
	gorm.Model
	UserID         int            `json:"userId"`
	User           *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	AddressID      *uint          `json:"addressId"`
	Address        *Address       `json:"address,omitempty" gorm:"foreignKey:AddressID"`
	Total          float64        `json:"total"`
	Discount       float64        `json:"discount"`
	Fees           float64        `json:"fees"`
	NetAmount      float64        `json:"netAmount"`
	Status         string         `json:"status"`
	PaymentMethod  string         `json:"paymentMethod"`
	TransactionID  string         `json:"transactionId"`
	AdminNotes     string         `json:"adminNotes"`
	TrackingNumber string         `json:"trackingNumber"`
	TrackingInfo   datatypes.JSON `json:"trackingInfo"`
	OrderItems     []OrderItem    `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem snapshots the product at purchase time, so later price or
// catalog changes never alter historical orders.
type OrderItem struct {
	gorm.Model
	OrderID   int     `json:"orderId"`
	ProductId int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type TrackingUpdate struct {
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

type TrackingInfo struct {
	Location          string           `json:"location"`
	EstimatedDelivery *time.Time       `json:"estimatedDelivery"`
	Updates           []TrackingUpdate `json:"updates"`
}
