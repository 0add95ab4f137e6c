package inventory

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"poultrypos-backend/internal/auth"
	"poultrypos-backend/internal/config"
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"
	"poultrypos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type invEnv struct {
	app        *fiber.App
	db         *gorm.DB
	shop       models.Shop
	chicken    models.Product
	staffToken string
}

func newInvEnv(t *testing.T) *invEnv {
	t.Helper()

	env := &invEnv{db: database.OpenTest(t)}
	cfg := &config.Config{JWTSecret: "test-secret-that-is-long-enough-0"}

	env.shop = models.Shop{Name: "Main Street Chicken", Status: models.ShopStatusActive}
	if err := env.db.Create(&env.shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	env.chicken = models.Product{Name: "Whole Chicken", Category: "Raw", BasePrice: 15, UnitType: models.UnitQty, IsActive: true}
	if err := env.db.Create(&env.chicken).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	staff := models.User{Name: "Staff", Email: "staff@example.com", PasswordHash: "x", Role: models.RoleShopStaff, ShopID: &env.shop.ID}
	if err := env.db.Create(&staff).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	var err error
	env.staffToken, err = auth.GenerateToken(cfg.JWTSecret, &staff)
	if err != nil {
		t.Fatalf("staff token: %v", err)
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
	api.Get("/inventory", ListInventoryHandler())
	api.Put("/inventory", SetQuantityHandler())
	api.Post("/inventory/reconcile", ReconcileHandler())
	api.Get("/inventory/current", GetCurrentStockHandler())
	api.Post("/adjustments", CreateAdjustmentHandler())

	env.app = app
	return env
}

func (env *invEnv) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.staffToken)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestListInventoryShowsUntouchedProductsAsZero(t *testing.T) {
	env := newInvEnv(t)

	resp := env.request(t, http.MethodGet, "/api/inventory", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var rows []InventoryRowResponse
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Quantity != 0 || rows[0].Status != "Out of Stock" {
		t.Fatalf("untouched row = %+v, want quantity 0, Out of Stock", rows[0])
	}
}

func TestSetQuantityEndpointBooksCorrection(t *testing.T) {
	env := newInvEnv(t)

	resp := env.request(t, http.MethodPut, "/api/inventory", SetQuantityRequest{
		ProductID: env.chicken.ID,
		Quantity:  25,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		Delta    float64 `json:"delta"`
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Delta != 25 {
		t.Fatalf("delta = %g, want 25", out.Delta)
	}

	got, err := stock.Current(env.db, env.shop.ID, env.chicken.ID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if got != 25 {
		t.Fatalf("stock = %g, want 25", got)
	}

	var adj models.InventoryAdjustment
	if err := env.db.First(&adj, "reason = ?", models.ReasonManualCorrection).Error; err != nil {
		t.Fatalf("manual_correction row missing: %v", err)
	}
	if adj.Quantity != -25 {
		t.Fatalf("adjustment quantity = %g, want -25", adj.Quantity)
	}
}

func TestReconcileEndpointRepairsDrift(t *testing.T) {
	env := newInvEnv(t)

	if _, err := stock.SetQuantity(env.db, env.shop.ID, env.chicken.ID, 30); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	if err := env.db.Model(&models.Inventory{}).
		Where("shop_id = ? AND product_id = ?", env.shop.ID, env.chicken.ID).
		Update("quantity", 77).Error; err != nil {
		t.Fatalf("corrupt counter: %v", err)
	}

	resp := env.request(t, http.MethodPost, "/api/inventory/reconcile", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Drifts   []stock.Drift `json:"drifts"`
		Repaired bool          `json:"repaired"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Drifts) != 1 || out.Repaired {
		t.Fatalf("dry run = %+v, want one drift, not repaired", out)
	}

	resp = env.request(t, http.MethodPost, "/api/inventory/reconcile?repair=true", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repair status = %d, want 200", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Repaired {
		t.Fatalf("expected repaired = true")
	}

	got, err := stock.Current(env.db, env.shop.ID, env.chicken.ID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if got != 30 {
		t.Fatalf("stock = %g, want 30 after repair", got)
	}
}

func TestCreateAdjustmentRejectsManualCorrectionReason(t *testing.T) {
	env := newInvEnv(t)

	resp := env.request(t, http.MethodPost, "/api/adjustments", CreateAdjustmentRequest{
		ProductID: env.chicken.ID,
		Quantity:  2,
		Reason:    "manual_correction",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateAdjustmentDecrementsStock(t *testing.T) {
	env := newInvEnv(t)

	if err := stock.Apply(env.db, env.shop.ID, env.chicken.ID, 12); err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	resp := env.request(t, http.MethodPost, "/api/adjustments", CreateAdjustmentRequest{
		ProductID: env.chicken.ID,
		Quantity:  3,
		Reason:    "damage",
		Note:      "dropped crate",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	got, err := stock.Current(env.db, env.shop.ID, env.chicken.ID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if got != 9 {
		t.Fatalf("stock = %g, want 9", got)
	}
}
