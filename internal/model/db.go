package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Transitions only go pending→paid or pending→canceled.
const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusCanceled = "canceled"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:128;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	Role         string `gorm:"size:32;not null"`
	HashPassword string `gorm:"size:128;not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
}

type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:255;index;not null"`
	CategoryID  uint            `gorm:"index;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Description string          `gorm:"type:text"`
	ImageURL    string          `gorm:"size:512"`
}

type Order struct {
	ID uint `gorm:"primaryKey"`
	// FK → users.id
	UserID          uint            `gorm:"index;not null"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status          string          `gorm:"size:32;index;not null;default:pending"`
	ShippingAddress string          `gorm:"size:512;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.id
	OrderID uint `gorm:"index;not null"`
	// FK → products.id
	ProductID uint `gorm:"index;not null"`
	Quantity  int  `gorm:"not null"`
	// unit price frozen at order time; later catalog changes must not touch it
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
