package audit

import (
	"strconv"

	"poultrypos-backend/internal/auth"
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs
// Admins see everything (optionally filtered by shop_id), shop staff only
// their own shop.
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(auth.CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role claim missing")
		}

		query := database.DB.Model(&models.AuditLog{}).Order("created_at DESC")

		if role == models.RoleShopStaff {
			sVal := c.Locals(auth.CtxShopIDKey)
			sPtr, ok := sVal.(*uint)
			if !ok || sPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Shop claim missing")
			}
			query = query.Where("shop_id = ?", *sPtr)
		} else if sidStr := c.Query("shop_id"); sidStr != "" {
			sid, err := strconv.ParseUint(sidStr, 10, 32)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "shop_id is invalid")
			}
			query = query.Where("shop_id = ?", uint(sid))
		}

		if et := c.Query("entity_type"); et != "" {
			query = query.Where("entity_type = ?", et)
		}

		limit := 100
		if lStr := c.Query("limit"); lStr != "" {
			if l, err := strconv.Atoi(lStr); err == nil && l > 0 && l <= 500 {
				limit = l
			}
		}

		var logs []models.AuditLog
		if err := query.Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		return c.JSON(logs)
	}
}
