package stock

import (
	"errors"
	"fmt"
	"time"

	"poultrypos-backend/internal/models"

	"gorm.io/gorm"
)

// ErrConflict: a compare-and-swap update lost against a concurrent edit of the
// same line item. The caller should re-read and retry.
var ErrConflict = errors.New("stock: line item changed concurrently")

// Apply adds delta to the (shop, product) counter in one atomic statement.
// The upsert form means two concurrent callers can never lose an update the
// way a fetch-compute-write sequence would. Quantity is allowed to go
// negative; the listing endpoints surface that as an out-of-stock status.
func Apply(tx *gorm.DB, shopID, productID uint, delta float64) error {
	now := time.Now()
	return tx.Exec(`
		INSERT INTO inventory (shop_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (shop_id, product_id)
		DO UPDATE SET quantity = inventory.quantity + excluded.quantity, updated_at = excluded.updated_at
	`, shopID, productID, delta, now, now).Error
}

// Current returns the counter for (shop, product); a missing row reads as 0.
func Current(db *gorm.DB, shopID, productID uint) (float64, error) {
	var inv models.Inventory
	err := db.Where("shop_id = ? AND product_id = ?", shopID, productID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return inv.Quantity, nil
}

type PurchaseLine struct {
	ProductID uint
	Quantity  float64
	UnitCost  float64
}

// RecordPurchase writes the header, its line items and the stock increments in
// a single transaction. Either everything lands or nothing does; there is no
// orphaned-header failure mode.
func RecordPurchase(db *gorm.DB, shopID, vendorID uint, remarks string, at time.Time, lines []PurchaseLine) (*models.Purchase, error) {
	if len(lines) == 0 {
		return nil, errors.New("stock: purchase needs at least one line")
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("stock: purchase quantity must be positive (product %d)", l.ProductID)
		}
	}

	purchase := &models.Purchase{
		ShopID:    shopID,
		VendorID:  vendorID,
		Remarks:   remarks,
		CreatedAt: at,
	}
	for _, l := range lines {
		purchase.TotalCost += l.Quantity * l.UnitCost
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var vendor models.Vendor
		if err := tx.First(&vendor, "id = ?", vendorID).Error; err != nil {
			return fmt.Errorf("stock: vendor %d not found", vendorID)
		}
		if err := tx.Create(purchase).Error; err != nil {
			return err
		}
		for _, l := range lines {
			var product models.Product
			if err := tx.First(&product, "id = ?", l.ProductID).Error; err != nil {
				return fmt.Errorf("stock: product %d not found", l.ProductID)
			}
			item := models.PurchaseItem{
				PurchaseID: purchase.ID,
				ProductID:  l.ProductID,
				Quantity:   l.Quantity,
				UnitCost:   l.UnitCost,
				TotalCost:  l.Quantity * l.UnitCost,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			purchase.Items = append(purchase.Items, item)
			if err := Apply(tx, shopID, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

type SaleLine struct {
	ProductID uint
	Quantity  float64
}

// RecordSale writes the sale header, its items and the stock decrements in a
// single transaction. Unit prices come from the catalog at sale time and the
// product name is denormalized onto the line.
func RecordSale(db *gorm.DB, shopID uint, paymentMethod string, at time.Time, lines []SaleLine) (*models.Sale, error) {
	if len(lines) == 0 {
		return nil, errors.New("stock: sale needs at least one line")
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("stock: sale quantity must be positive (product %d)", l.ProductID)
		}
	}

	sale := &models.Sale{
		ShopID:        shopID,
		PaymentMethod: paymentMethod,
		Status:        models.SaleStatusCompleted,
		CreatedAt:     at,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sale).Error; err != nil {
			return err
		}
		var total float64
		for _, l := range lines {
			var product models.Product
			if err := tx.First(&product, "id = ?", l.ProductID).Error; err != nil {
				return fmt.Errorf("stock: product %d not found", l.ProductID)
			}
			item := models.SaleItem{
				SaleID:      sale.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    l.Quantity,
				UnitPrice:   product.BasePrice,
				TotalPrice:  product.BasePrice * l.Quantity,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			sale.Items = append(sale.Items, item)
			total += item.TotalPrice
			if err := Apply(tx, shopID, product.ID, -l.Quantity); err != nil {
				return err
			}
		}
		sale.TotalAmount = total
		return tx.Model(sale).Update("total_amount", total).Error
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// RecordLoss writes an adjustment row and decrements stock atomically.
func RecordLoss(db *gorm.DB, shopID, productID uint, qty float64, reason models.AdjustmentReason, note string) (*models.InventoryAdjustment, error) {
	if qty <= 0 {
		return nil, errors.New("stock: loss quantity must be positive")
	}
	adj := &models.InventoryAdjustment{
		ShopID:    shopID,
		ProductID: productID,
		Quantity:  qty,
		Reason:    reason,
		Note:      note,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			return fmt.Errorf("stock: product %d not found", productID)
		}
		if err := tx.Create(adj).Error; err != nil {
			return err
		}
		return Apply(tx, shopID, productID, -qty)
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// SetQuantity is the manual inventory edit. It computes the delta against the
// stored counter inside the transaction and books it as a manual_correction
// adjustment, so the ledger keeps summing to the running counter. Returns the
// applied delta (0 when the counter already matched).
func SetQuantity(db *gorm.DB, shopID, productID uint, newQty float64) (float64, error) {
	var delta float64
	err := db.Transaction(func(tx *gorm.DB) error {
		current, err := Current(tx, shopID, productID)
		if err != nil {
			return err
		}
		delta = newQty - current
		if delta == 0 {
			return nil
		}
		adj := models.InventoryAdjustment{
			ShopID:    shopID,
			ProductID: productID,
			Quantity:  -delta, // adjustment quantity is the amount removed
			Reason:    models.ReasonManualCorrection,
			Note:      fmt.Sprintf("manual edit: %g -> %g", current, newQty),
		}
		if err := tx.Create(&adj).Error; err != nil {
			return err
		}
		return Apply(tx, shopID, productID, delta)
	})
	if err != nil {
		return 0, err
	}
	return delta, nil
}

// UpdateSaleItemQuantity moves a sale line to a target quantity and returns
// the stock delta that was applied. The delta is computed against the stored
// old value and the line is updated with a compare-and-swap, so invoking the
// endpoint twice with the same target applies the delta exactly once.
func UpdateSaleItemQuantity(db *gorm.DB, itemID uint, newQty float64) (float64, error) {
	if newQty < 0 {
		return 0, errors.New("stock: quantity cannot be negative")
	}
	var applied float64
	err := db.Transaction(func(tx *gorm.DB) error {
		var item models.SaleItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return err
		}
		if item.Quantity == newQty {
			return nil // already at target
		}
		var sale models.Sale
		if err := tx.First(&sale, "id = ?", item.SaleID).Error; err != nil {
			return err
		}

		res := tx.Model(&models.SaleItem{}).
			Where("id = ? AND quantity = ?", item.ID, item.Quantity).
			Updates(map[string]interface{}{
				"quantity":    newQty,
				"total_price": newQty * item.UnitPrice,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		// selling less returns units to stock, selling more takes them
		applied = item.Quantity - newQty
		if err := Apply(tx, sale.ShopID, item.ProductID, applied); err != nil {
			return err
		}
		return tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
			Update("total_amount", gorm.Expr("total_amount + ?", (newQty-item.Quantity)*item.UnitPrice)).Error
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// UpdatePurchaseItemQuantity is the purchase-side twin: the stock delta
// carries the purchase sign (more bought means more stock).
func UpdatePurchaseItemQuantity(db *gorm.DB, itemID uint, newQty float64) (float64, error) {
	if newQty < 0 {
		return 0, errors.New("stock: quantity cannot be negative")
	}
	var applied float64
	err := db.Transaction(func(tx *gorm.DB) error {
		var item models.PurchaseItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return err
		}
		if item.Quantity == newQty {
			return nil
		}
		var purchase models.Purchase
		if err := tx.First(&purchase, "id = ?", item.PurchaseID).Error; err != nil {
			return err
		}

		res := tx.Model(&models.PurchaseItem{}).
			Where("id = ? AND quantity = ?", item.ID, item.Quantity).
			Updates(map[string]interface{}{
				"quantity":   newQty,
				"total_cost": newQty * item.UnitCost,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		applied = newQty - item.Quantity
		if err := Apply(tx, purchase.ShopID, item.ProductID, applied); err != nil {
			return err
		}
		return tx.Model(&models.Purchase{}).Where("id = ?", purchase.ID).
			Update("total_cost", gorm.Expr("total_cost + ?", (newQty-item.Quantity)*item.UnitCost)).Error
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// DeleteSale reverses every line's stock effect, then removes the lines and
// the header, all in one transaction.
func DeleteSale(db *gorm.DB, saleID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.Preload("Items").First(&sale, "id = ?", saleID).Error; err != nil {
			return err
		}
		for _, item := range sale.Items {
			if err := Apply(tx, sale.ShopID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Sale{}, "id = ?", sale.ID).Error
	})
}

// DeletePurchase deducts every line's previously added stock, then removes
// the lines and the header.
func DeletePurchase(db *gorm.DB, purchaseID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var purchase models.Purchase
		if err := tx.Preload("Items").First(&purchase, "id = ?", purchaseID).Error; err != nil {
			return err
		}
		for _, item := range purchase.Items {
			if err := Apply(tx, purchase.ShopID, item.ProductID, -item.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&models.PurchaseItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Purchase{}, "id = ?", purchase.ID).Error
	})
}

// ResetShopData wipes a shop's transactional history and counters: sales,
// purchases, adjustments and inventory rows, in one transaction. Catalog and
// vendor rows are global and stay.
func ResetShopData(db *gorm.DB, shopID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM sale_items WHERE sale_id IN (SELECT id FROM sales WHERE shop_id = ?)`, shopID).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id = ?", shopID).Delete(&models.Sale{}).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM purchase_items WHERE purchase_id IN (SELECT id FROM purchases WHERE shop_id = ?)`, shopID).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id = ?", shopID).Delete(&models.Purchase{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id = ?", shopID).Delete(&models.InventoryAdjustment{}).Error; err != nil {
			return err
		}
		return tx.Where("shop_id = ?", shopID).Delete(&models.Inventory{}).Error
	})
}
