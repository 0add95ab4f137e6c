package models

import "time"

// Purchase: vendor-sourced stock-in, header plus line items.
type Purchase struct {
	ID        uint `gorm:"primaryKey"`
	ShopID    uint `gorm:"index;not null"`
	Shop      Shop
	VendorID  uint `gorm:"index;not null"`
	Vendor    Vendor
	TotalCost float64 `gorm:"not null"`
	Remarks   string  `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []PurchaseItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
}

type PurchaseItem struct {
	ID         uint `gorm:"primaryKey"`
	PurchaseID uint `gorm:"index;not null"`
	ProductID  uint `gorm:"index;not null"`
	Product    Product
	Quantity   float64 `gorm:"not null"`
	UnitCost   float64 `gorm:"not null"`
	TotalCost  float64 `gorm:"not null"` // Quantity * UnitCost
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
