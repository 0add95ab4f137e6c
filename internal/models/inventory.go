package models

import "time"

// Inventory: the per-shop stock counter, one row per (shop, product).
// Quantity is the net of all purchase/sale/adjustment movements and is only
// ever mutated through stock.Apply. It may go negative when a sale outruns
// the recorded stock.
type Inventory struct {
	ID        uint `gorm:"primaryKey"`
	ShopID    uint `gorm:"not null;uniqueIndex:idx_inventory_shop_product"`
	Shop      Shop
	ProductID uint `gorm:"not null;uniqueIndex:idx_inventory_shop_product"`
	Product   Product
	Quantity  float64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Inventory) TableName() string { return "inventory" }
