package models

import "time"

// CompanySettings: single-row company profile shown on receipts and reports.
type CompanySettings struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	TaxID     string `gorm:"size:50"`
	Website   string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
