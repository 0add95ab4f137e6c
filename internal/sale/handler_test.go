package sale

import (
	"bytes"
	"encoding/json"
	"fmt"
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

type testEnv struct {
	app        *fiber.App
	db         *gorm.DB
	shop       models.Shop
	otherShop  models.Shop
	chicken    models.Product
	adminToken string
	staffToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{db: database.OpenTest(t)}
	cfg := &config.Config{JWTSecret: "test-secret-that-is-long-enough-0"}

	env.shop = models.Shop{Name: "Main Street Chicken", Status: models.ShopStatusActive}
	env.otherShop = models.Shop{Name: "Riverside Chicken", Status: models.ShopStatusActive}
	if err := env.db.Create(&env.shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	if err := env.db.Create(&env.otherShop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	env.chicken = models.Product{Name: "Whole Chicken", BasePrice: 15, UnitType: models.UnitQty, IsActive: true}
	if err := env.db.Create(&env.chicken).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	admin := models.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	if err := env.db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	staff := models.User{Name: "Staff", Email: "staff@example.com", PasswordHash: "x", Role: models.RoleShopStaff, ShopID: &env.shop.ID}
	if err := env.db.Create(&staff).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	var err error
	env.adminToken, err = auth.GenerateToken(cfg.JWTSecret, &admin)
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}
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
	api := app.Group("/api")
	api.Use(auth.JWTMiddleware(cfg))
	api.Post("/sales", CreateSaleHandler())
	api.Get("/sales", ListSalesHandler())
	api.Delete("/sales/:id", DeleteSaleHandler())
	api.Put("/sales/items/:id", UpdateSaleItemQuantityHandler())

	env.app = app
	return env
}

func (env *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCreateSaleCheckout(t *testing.T) {
	env := newTestEnv(t)

	if err := stock.Apply(env.db, env.shop.ID, env.chicken.ID, 50); err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	resp := env.request(t, http.MethodPost, "/api/sales", env.staffToken, CreateSaleRequest{
		Items: []CartItem{{ProductID: env.chicken.ID, Quantity: 3}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	sale := decodeJSON[SaleResponse](t, resp)
	if sale.ShopID != env.shop.ID {
		t.Fatalf("shop_id = %d, want %d (staff token scope)", sale.ShopID, env.shop.ID)
	}
	if sale.TotalAmount != 45 {
		t.Fatalf("total = %g, want 45", sale.TotalAmount)
	}
	if sale.PaymentMethod != "cash" {
		t.Fatalf("payment_method = %q, want cash default", sale.PaymentMethod)
	}

	got, err := stock.Current(env.db, env.shop.ID, env.chicken.ID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if got != 47 {
		t.Fatalf("stock = %g, want 47", got)
	}
}

func TestCreateSaleRejectsEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/sales", env.staffToken, CreateSaleRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateSaleAdminNeedsShopID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/sales", env.adminToken, CreateSaleRequest{
		Items: []CartItem{{ProductID: env.chicken.ID, Quantity: 1}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	resp = env.request(t, http.MethodPost, "/api/sales", env.adminToken, CreateSaleRequest{
		ShopID: &env.otherShop.ID,
		Items:  []CartItem{{ProductID: env.chicken.ID, Quantity: 1}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	sale := decodeJSON[SaleResponse](t, resp)
	if sale.ShopID != env.otherShop.ID {
		t.Fatalf("shop_id = %d, want %d", sale.ShopID, env.otherShop.ID)
	}
}

func TestStaffCannotDeleteOtherShopsSale(t *testing.T) {
	env := newTestEnv(t)

	s, err := stock.RecordSale(env.db, env.otherShop.ID, "cash", time.Now(), []stock.SaleLine{
		{ProductID: env.chicken.ID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	resp := env.request(t, http.MethodDelete, fmt.Sprintf("/api/sales/%d", s.ID), env.staffToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}

	var count int64
	env.db.Model(&models.Sale{}).Count(&count)
	if count != 1 {
		t.Fatalf("sale was deleted despite 403")
	}
}

func TestDeleteSaleRestoresStockViaAPI(t *testing.T) {
	env := newTestEnv(t)

	if err := stock.Apply(env.db, env.shop.ID, env.chicken.ID, 10); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	s, err := stock.RecordSale(env.db, env.shop.ID, "cash", time.Now(), []stock.SaleLine{
		{ProductID: env.chicken.ID, Quantity: 4},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	resp := env.request(t, http.MethodDelete, fmt.Sprintf("/api/sales/%d", s.ID), env.staffToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	got, err := stock.Current(env.db, env.shop.ID, env.chicken.ID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if got != 10 {
		t.Fatalf("stock = %g, want 10", got)
	}
}

func TestUpdateSaleItemQuantityEndpoint(t *testing.T) {
	env := newTestEnv(t)

	if err := stock.Apply(env.db, env.shop.ID, env.chicken.ID, 20); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	s, err := stock.RecordSale(env.db, env.shop.ID, "cash", time.Now(), []stock.SaleLine{
		{ProductID: env.chicken.ID, Quantity: 5},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	path := fmt.Sprintf("/api/sales/items/%d", s.Items[0].ID)
	resp := env.request(t, http.MethodPut, path, env.staffToken, UpdateItemQuantityRequest{Quantity: 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out := decodeJSON[map[string]float64](t, resp)
	if out["stock_delta"] != 2 {
		t.Fatalf("stock_delta = %g, want 2", out["stock_delta"])
	}

	// same target again: no further movement
	resp = env.request(t, http.MethodPut, path, env.staffToken, UpdateItemQuantityRequest{Quantity: 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat status = %d, want 200", resp.StatusCode)
	}
	out = decodeJSON[map[string]float64](t, resp)
	if out["stock_delta"] != 0 {
		t.Fatalf("repeat stock_delta = %g, want 0", out["stock_delta"])
	}

	got, err := stock.Current(env.db, env.shop.ID, env.chicken.ID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if got != 17 {
		t.Fatalf("stock = %g, want 17", got)
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
