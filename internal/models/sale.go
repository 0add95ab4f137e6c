package models

import "time"

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusRefunded  SaleStatus = "refunded"
	SaleStatusCancelled SaleStatus = "cancelled"
)

type Sale struct {
	ID            uint `gorm:"primaryKey"`
	ShopID        uint `gorm:"index;not null"`
	Shop          Shop
	TotalAmount   float64    `gorm:"not null"`
	PaymentMethod string     `gorm:"size:20;not null;default:cash"`
	Status        SaleStatus `gorm:"size:20;not null;default:completed"`
	CreatedAt     time.Time  `gorm:"index"`
	UpdatedAt     time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

type SaleItem struct {
	ID          uint `gorm:"primaryKey"`
	SaleID      uint `gorm:"index;not null"`
	ProductID   uint `gorm:"index;not null"`
	Product     Product
	ProductName string  `gorm:"size:100;not null"` // denormalized, receipts survive product renames
	Quantity    float64 `gorm:"not null"`
	UnitPrice   float64 `gorm:"not null"`
	TotalPrice  float64 `gorm:"not null"` // Quantity * UnitPrice
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
