package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	gorm.Model
	Fullname               string     `json:"fullname"`
	Email                  string     `json:"email" gorm:"uniqueIndex"`
	Phone                  string     `json:"phone"`
	Password               string     `json:"-"`
	Role                   string     `json:"role"`
	Active                 bool       `json:"active" gorm:"default:true"`
	LastLoginAt            *time.Time `json:"lastLoginAt"`
	AccountActivated       bool       `json:"accountActivated"`
	AccountActivationToken string     `json:"-"`
	PasswordResetToken     string     `json:"-"`
	Addresses              []Address  `json:"addresses" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Orders                 []Order    `json:"orders,omitempty" gorm:"foreignKey:UserID"`
}

type Address struct {
	gorm.Model
	UserID     int    `json:"userId"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	IsDefault  bool   `json:"isDefault"`
}

type SignupData struct {
	Fullname string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginData struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
