package main

import (
	"log"
	"strings"

	"poultrypos-backend/internal/admin"
	"poultrypos-backend/internal/audit"
	"poultrypos-backend/internal/auth"
	"poultrypos-backend/internal/backup"
	"poultrypos-backend/internal/catalog"
	"poultrypos-backend/internal/config"
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/inventory"
	"poultrypos-backend/internal/models"
	"poultrypos-backend/internal/purchase"
	"poultrypos-backend/internal/report"
	"poultrypos-backend/internal/sale"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Shop management
	adminRoutes.Post("/shops", admin.CreateShopHandler())
	adminRoutes.Get("/shops", admin.ListShopsHandler())
	adminRoutes.Get("/shops/:id", admin.GetShopHandler())
	adminRoutes.Put("/shops/:id", admin.UpdateShopHandler())
	adminRoutes.Delete("/shops/:id", admin.DeleteShopHandler())
	adminRoutes.Post("/shops/:id/reset", admin.ResetShopDataHandler())
	adminRoutes.Post("/shops/:id/staff", admin.CreateShopStaffHandler())
	adminRoutes.Get("/shops/:id/staff", admin.ListShopStaffHandler())

	// Users
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler())

	// Catalog management
	adminRoutes.Post("/products", catalog.CreateProductHandler())
	adminRoutes.Put("/products/:id", catalog.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", catalog.DeleteProductHandler())
	adminRoutes.Post("/vendors", catalog.CreateVendorHandler())
	adminRoutes.Put("/vendors/:id", catalog.UpdateVendorHandler())
	adminRoutes.Delete("/vendors/:id", catalog.DeleteVendorHandler())

	// Company profile
	adminRoutes.Get("/settings", admin.GetCompanySettingsHandler())
	adminRoutes.Put("/settings", admin.UpdateCompanySettingsHandler())

	// JSON backup
	adminRoutes.Get("/backup/export", backup.ExportHandler())
	adminRoutes.Post("/backup/import", backup.ImportHandler())

	// Shared (auth required) routes

	// Catalog reads
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Get("/vendors", catalog.ListVendorsHandler())

	// Per-shop stock
	protected.Get("/inventory", inventory.ListInventoryHandler())
	protected.Get("/inventory/current", inventory.GetCurrentStockHandler())
	protected.Put("/inventory", inventory.SetQuantityHandler())
	protected.Post("/inventory/reconcile", inventory.ReconcileHandler())

	// Loss adjustments
	protected.Post("/adjustments", inventory.CreateAdjustmentHandler())
	protected.Get("/adjustments", inventory.ListAdjustmentsHandler())

	// Purchases (stock in)
	protected.Post("/purchases", purchase.CreatePurchaseHandler())
	protected.Get("/purchases", purchase.ListPurchasesHandler())
	protected.Delete("/purchases/:id", purchase.DeletePurchaseHandler())
	protected.Put("/purchases/items/:id", purchase.UpdatePurchaseItemQuantityHandler())

	// Sales (POS)
	protected.Post("/sales", sale.CreateSaleHandler())
	protected.Get("/sales", sale.ListSalesHandler())
	protected.Delete("/sales/:id", sale.DeleteSaleHandler())
	protected.Put("/sales/items/:id", sale.UpdateSaleItemQuantityHandler())

	// Reports
	protected.Get("/reports/profit-summary", report.ProfitSummaryHandler())
	protected.Get("/reports/loss-breakdown", report.LossBreakdownHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
