package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type UserResponse struct {
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"username"`
	Password string `json:"password" form:"password"`
}

type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserSummary `json:"user"`
}

type ChangePasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ProductResponse struct {
	ProductID   uint            `json:"product_id"`
	Name        string          `json:"name"`
	CategoryID  uint            `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
}

type PaginatedProducts struct {
	TotalPages int               `json:"total_pages"`
	PerPage    int               `json:"product_per_page"`
	Page       int               `json:"page"`
	Data       []ProductResponse `json:"data"`
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	ShippingAddress string             `json:"shipping_address"`
	Items           []OrderItemRequest `json:"items"`
}

type OrderItemResponse struct {
	ID              uint            `json:"id"`
	ProductID       uint            `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

type OrderResponse struct {
	ID              uint                `json:"id"`
	UserID          uint                `json:"user_id"`
	TotalPrice      decimal.Decimal     `json:"total_price"`
	Status          string              `json:"status"`
	ShippingAddress string              `json:"shipping_address"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []OrderItemResponse `json:"order_items"`
}

type PaginatedOrders struct {
	TotalPages int             `json:"total_pages"`
	PerPage    int             `json:"items_per_page"`
	Page       int             `json:"page"`
	Data       []OrderResponse `json:"data"`
}

type CheckoutRequest struct {
	OrderID uint `json:"order_id"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}
