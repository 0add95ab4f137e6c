package models

import "time"

type ShopStatus string

const (
	ShopStatusActive   ShopStatus = "active"
	ShopStatusInactive ShopStatus = "inactive"
)

type Shop struct {
	ID        uint       `gorm:"primaryKey"`
	Name      string     `gorm:"size:100;not null;unique"`
	Address   string     `gorm:"size:255"`
	Phone     string     `gorm:"size:50"`
	Status    ShopStatus `gorm:"size:20;not null;default:active"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}
