package models

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Product struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	LoteNumber        string    `gorm:"uniqueIndex;not null"      json:"lote_number"`
	Name              string    `gorm:"not null"                  json:"name"`
	Price             float64   `gorm:"not null;check:price>=0"   json:"price"`
	AvailableQuantity uint      `json:"available_quantity"`
	Category          string    `json:"category,omitempty"`
	Description       string    `json:"description,omitempty"`
	EntryDate         time.Time `gorm:"not null"                  json:"entry_date"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name         string    `gorm:"not null"                  json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"not null"                  json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Order is an append-only purchase record. Lines carry a copy of the product
// fields taken at checkout time, so later catalog edits never change a placed
// order.
type Order struct {
	ID           string      `gorm:"primaryKey"      json:"id"`
	ClientID     uint        `gorm:"index;not null"  json:"client_id"`
	ClientName   string      `gorm:"not null"        json:"client_name"`
	Lines        []OrderLine `gorm:"foreignKey:OrderID" json:"lines"`
	Total        float64     `gorm:"not null"        json:"total"`
	PurchaseDate time.Time   `gorm:"not null"        json:"purchase_date"`
	Status       string      `gorm:"index;not null"  json:"status"`
}

type OrderLine struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderID     string  `gorm:"index;not null"            json:"order_id"`
	ProductID   uint    `gorm:"not null"                  json:"product_id"`
	ProductName string  `gorm:"not null"                  json:"product_name"`
	LoteNumber  string  `json:"lote_number"`
	UnitPrice   float64 `gorm:"not null"                  json:"unit_price"`
	Quantity    uint    `gorm:"not null;check:quantity>0" json:"quantity"`
	Subtotal    float64 `gorm:"not null"                  json:"subtotal"`
}
