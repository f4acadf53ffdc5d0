package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCancelled Status = "CANCELLED"

	DefaultCurrency = "USD"
)

type Order struct {
	ID             int64
	UserID         int64
	Status         Status
	Currency       string
	SubTotalAmount decimal.Decimal
	ShippingAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	OrderItems     []OrderItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	Name            string
	UnitAmount      decimal.Decimal
	Quantity        int32
	LineTotalAmount decimal.Decimal
}

type CreateOrderRequest struct {
	UserID         int64
	Currency       string
	ShippingAmount decimal.Decimal
	Items          []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int32
}
