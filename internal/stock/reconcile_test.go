package stock

import (
	"testing"
	"time"

	"poultrypos-backend/internal/models"
)

func TestReconcileDetectsAndRepairsDrift(t *testing.T) {
	f := newFixture(t)

	if _, err := RecordPurchase(f.db, f.shop.ID, f.vendor.ID, "", time.Now(), []PurchaseLine{
		{ProductID: f.chicken.ID, Quantity: 30, UnitCost: 8},
	}); err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if _, err := RecordSale(f.db, f.shop.ID, "cash", time.Now(), []SaleLine{
		{ProductID: f.chicken.ID, Quantity: 4},
	}); err != nil {
		t.Fatalf("record sale: %v", err)
	}
	f.mustStock(t, f.chicken.ID, 26)

	// corrupt the counter behind the ledger's back
	if err := f.db.Model(&models.Inventory{}).
		Where("shop_id = ? AND product_id = ?", f.shop.ID, f.chicken.ID).
		Update("quantity", 99).Error; err != nil {
		t.Fatalf("corrupt counter: %v", err)
	}

	drifts, err := Reconcile(f.db, f.shop.ID, false)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("expected one drift, got %+v", drifts)
	}
	d := drifts[0]
	if d.ProductID != f.chicken.ID || d.Counter != 99 || d.Ledger != 26 {
		t.Fatalf("unexpected drift row: %+v", d)
	}

	// dry run must not touch the counter
	f.mustStock(t, f.chicken.ID, 99)

	if _, err := Reconcile(f.db, f.shop.ID, true); err != nil {
		t.Fatalf("reconcile repair: %v", err)
	}
	f.mustStock(t, f.chicken.ID, 26)

	drifts, err = Reconcile(f.db, f.shop.ID, false)
	if err != nil {
		t.Fatalf("reconcile after repair: %v", err)
	}
	if len(drifts) != 0 {
		t.Fatalf("expected clean reconcile after repair, got %+v", drifts)
	}
}

func TestReconcileIgnoresOtherShops(t *testing.T) {
	f := newFixture(t)

	other := models.Shop{Name: "Second Shop", Status: models.ShopStatusActive}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	if err := Apply(f.db, other.ID, f.chicken.ID, 5); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// other shop has counter 5 with no ledger rows, but we only reconcile f.shop
	drifts, err := Reconcile(f.db, f.shop.ID, false)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(drifts) != 0 {
		t.Fatalf("expected no drift for untouched shop, got %+v", drifts)
	}
}

func TestResetShopDataWipesOnlyTargetShop(t *testing.T) {
	f := newFixture(t)

	other := models.Shop{Name: "Second Shop", Status: models.ShopStatusActive}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}

	for _, shopID := range []uint{f.shop.ID, other.ID} {
		if _, err := RecordPurchase(f.db, shopID, f.vendor.ID, "", time.Now(), []PurchaseLine{
			{ProductID: f.chicken.ID, Quantity: 10, UnitCost: 8},
		}); err != nil {
			t.Fatalf("record purchase: %v", err)
		}
		if _, err := RecordSale(f.db, shopID, "cash", time.Now(), []SaleLine{
			{ProductID: f.chicken.ID, Quantity: 2},
		}); err != nil {
			t.Fatalf("record sale: %v", err)
		}
		if _, err := RecordLoss(f.db, shopID, f.chicken.ID, 1, models.ReasonDamage, ""); err != nil {
			t.Fatalf("record loss: %v", err)
		}
	}

	if err := ResetShopData(f.db, f.shop.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}

	var count int64
	f.db.Model(&models.Sale{}).Where("shop_id = ?", f.shop.ID).Count(&count)
	if count != 0 {
		t.Fatalf("sales remain for reset shop: %d", count)
	}
	f.db.Model(&models.Purchase{}).Where("shop_id = ?", f.shop.ID).Count(&count)
	if count != 0 {
		t.Fatalf("purchases remain for reset shop: %d", count)
	}
	f.db.Model(&models.InventoryAdjustment{}).Where("shop_id = ?", f.shop.ID).Count(&count)
	if count != 0 {
		t.Fatalf("adjustments remain for reset shop: %d", count)
	}
	f.db.Model(&models.Inventory{}).Where("shop_id = ?", f.shop.ID).Count(&count)
	if count != 0 {
		t.Fatalf("inventory rows remain for reset shop: %d", count)
	}

	// the other shop keeps its data
	f.db.Model(&models.Sale{}).Where("shop_id = ?", other.ID).Count(&count)
	if count != 1 {
		t.Fatalf("other shop sales = %d, want 1", count)
	}
	got, err := Current(f.db, other.ID, f.chicken.ID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if got != 7 {
		t.Fatalf("other shop stock = %g, want 7", got)
	}
}
