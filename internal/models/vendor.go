package models

import "time"

type VendorStatus string

const (
	VendorStatusActive   VendorStatus = "Active"
	VendorStatusInactive VendorStatus = "Inactive"
)

type Vendor struct {
	ID            uint         `gorm:"primaryKey"`
	Name          string       `gorm:"size:100;not null;unique"`
	ContactPerson string       `gorm:"size:100"`
	Phone         string       `gorm:"size:50"`
	Status        VendorStatus `gorm:"size:20;not null;default:Active"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
