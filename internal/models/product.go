package models

import "time"

type UnitType string

const (
	UnitKg  UnitType = "Kg"  // sold by weight
	UnitQty UnitType = "Qty" // sold by piece
)

type Product struct {
	ID        uint     `gorm:"primaryKey"`
	Name      string   `gorm:"size:100;not null;unique"`
	Category  string   `gorm:"size:50;index"` // Raw, Parts, Condiments vs.
	BasePrice float64  `gorm:"not null"`
	UnitType  UnitType `gorm:"size:10;not null;default:Qty"`
	IsActive  bool     `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
