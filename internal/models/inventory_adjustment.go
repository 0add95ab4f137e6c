package models

import "time"

type AdjustmentReason string

const (
	ReasonDamage AdjustmentReason = "damage"
	ReasonTheft  AdjustmentReason = "theft"
	ReasonExpiry AdjustmentReason = "expiry"
	ReasonOther  AdjustmentReason = "other"
	// ReasonManualCorrection rows are written by the set-quantity flow so the
	// ledger still sums to the running counter after a manual edit.
	ReasonManualCorrection AdjustmentReason = "manual_correction"
)

// InventoryAdjustment: a manual stock decrease (damage, theft, expiry...).
// Quantity is the amount removed from stock; manual corrections may carry a
// negative quantity when stock was corrected upward.
type InventoryAdjustment struct {
	ID        uint `gorm:"primaryKey"`
	ShopID    uint `gorm:"index;not null"`
	Shop      Shop
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  float64          `gorm:"not null"`
	Reason    AdjustmentReason `gorm:"size:30;not null"`
	Note      string           `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
