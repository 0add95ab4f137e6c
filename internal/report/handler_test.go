package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"poultrypos-backend/internal/auth"
	"poultrypos-backend/internal/config"
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"
	"poultrypos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func newReportEnv(t *testing.T) (*fiber.App, *gorm.DB, models.Shop, models.Product, string) {
	t.Helper()
	db := database.OpenTest(t)
	cfg := &config.Config{JWTSecret: "test-secret-that-is-long-enough-0"}

	shop := models.Shop{Name: "Main Street Chicken", Status: models.ShopStatusActive}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	product := models.Product{Name: "Whole Chicken", BasePrice: 15, UnitType: models.UnitQty, IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	vendor := models.Vendor{Name: "Fresh Farms", Status: models.VendorStatusActive}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	staff := models.User{Name: "Staff", Email: "staff@example.com", PasswordHash: "x", Role: models.RoleShopStaff, ShopID: &shop.ID}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	token, err := auth.GenerateToken(cfg.JWTSecret, &staff)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if _, err := stock.RecordPurchase(db, shop.ID, vendor.ID, "", time.Now(), []stock.PurchaseLine{
		{ProductID: product.ID, Quantity: 20, UnitCost: 10},
	}); err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if _, err := stock.RecordSale(db, shop.ID, "cash", time.Now(), []stock.SaleLine{
		{ProductID: product.ID, Quantity: 4},
	}); err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if _, err := stock.RecordLoss(db, shop.ID, product.ID, 2, models.ReasonDamage, ""); err != nil {
		t.Fatalf("record loss: %v", err)
	}
	// manual corrections are bookkeeping, not losses
	if _, err := stock.SetQuantity(db, shop.ID, product.ID, 20); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unexpected server error"})
		},
	})
	api := app.Group("/api", auth.JWTMiddleware(cfg))
	api.Get("/reports/profit-summary", ProfitSummaryHandler())
	api.Get("/reports/loss-breakdown", LossBreakdownHandler())

	return app, db, shop, product, token
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestProfitSummary(t *testing.T) {
	app, _, shop, _, token := newReportEnv(t)

	today := time.Now().Format("2006-01-02")
	resp := get(t, app, "/api/reports/profit-summary?from="+today+"&to="+today, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out ProfitSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ShopID != shop.ID {
		t.Fatalf("shop_id = %d, want %d", out.ShopID, shop.ID)
	}
	if out.TotalRevenue != 60 {
		t.Fatalf("revenue = %g, want 60", out.TotalRevenue)
	}
	if out.PurchaseCost != 200 {
		t.Fatalf("purchase cost = %g, want 200", out.PurchaseCost)
	}
	if out.NetProfit != -140 {
		t.Fatalf("net profit = %g, want -140", out.NetProfit)
	}
	if out.LossUnits != 2 {
		t.Fatalf("loss units = %g, want 2 (manual corrections excluded)", out.LossUnits)
	}
	if out.SaleCount != 1 {
		t.Fatalf("sale count = %d, want 1", out.SaleCount)
	}
	if len(out.DailyBreakdown) != 1 {
		t.Fatalf("daily breakdown days = %d, want 1", len(out.DailyBreakdown))
	}
	if out.DailyBreakdown[0].Revenue != 60 || out.DailyBreakdown[0].PurchaseCost != 200 {
		t.Fatalf("daily figure = %+v", out.DailyBreakdown[0])
	}
}

func TestProfitSummaryRequiresRange(t *testing.T) {
	app, _, _, _, token := newReportEnv(t)

	resp := get(t, app, "/api/reports/profit-summary", token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLossBreakdownExcludesManualCorrections(t *testing.T) {
	app, _, _, _, token := newReportEnv(t)

	today := time.Now().Format("2006-01-02")
	resp := get(t, app, "/api/reports/loss-breakdown?from="+today+"&to="+today, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var rows []LossBreakdownRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v, want only the damage bucket", rows)
	}
	if rows[0].Reason != "damage" || rows[0].Units != 2 || rows[0].Count != 1 {
		t.Fatalf("damage row = %+v", rows[0])
	}
}
