package report

import (
	"fmt"
	"time"

	"poultrypos-backend/internal/auth"
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func resolveShopIDFromQueryOrRole(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Role claim missing")
	}

	if role == models.RoleShopStaff {
		sVal := c.Locals(auth.CtxShopIDKey)
		sPtr, ok := sVal.(*uint)
		if !ok || sPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Shop claim missing")
		}
		return *sPtr, nil
	}

	sidStr := c.Query("shop_id")
	if sidStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "shop_id is required")
	}
	var sid uint
	if _, err := fmt.Sscan(sidStr, &sid); err != nil || sid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "shop_id is invalid")
	}
	return sid, nil
}

func parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from and to dates are required (YYYY-MM-DD)")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from date is invalid")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to date is invalid")
	}
	// inclusive end of day
	return from, to.AddDate(0, 0, 1), nil
}

type DailyFigure struct {
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	PurchaseCost float64 `json:"purchase_cost"`
}

type ProfitSummaryResponse struct {
	ShopID         uint          `json:"shop_id"`
	StartDate      string        `json:"start_date"`
	EndDate        string        `json:"end_date"`
	TotalRevenue   float64       `json:"total_revenue"`
	PurchaseCost   float64       `json:"purchase_cost"`
	LossUnits      float64       `json:"loss_units"`
	NetProfit      float64       `json:"net_profit"` // revenue - purchase cost
	SaleCount      int           `json:"sale_count"`
	DailyBreakdown []DailyFigure `json:"daily_breakdown"`
}

// GET /api/reports/profit-summary?from=&to=
// Revenue counts completed sales only; refunded/cancelled are excluded.
func ProfitSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := resolveShopIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}

		var sales []models.Sale
		if err := database.DB.
			Where("shop_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
				shopID, models.SaleStatusCompleted, from, to).
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load sales")
		}

		var purchases []models.Purchase
		if err := database.DB.
			Where("shop_id = ? AND created_at >= ? AND created_at < ?", shopID, from, to).
			Find(&purchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load purchases")
		}

		var lossUnits float64
		if err := database.DB.Model(&models.InventoryAdjustment{}).
			Where("shop_id = ? AND reason <> ? AND created_at >= ? AND created_at < ?",
				shopID, models.ReasonManualCorrection, from, to).
			Select("COALESCE(SUM(quantity), 0)").Scan(&lossUnits).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load adjustments")
		}

		daily := map[string]*DailyFigure{}
		dayOf := func(t time.Time) *DailyFigure {
			key := t.Format("2006-01-02")
			if d, ok := daily[key]; ok {
				return d
			}
			d := &DailyFigure{Date: key}
			daily[key] = d
			return d
		}

		resp := ProfitSummaryResponse{
			ShopID:    shopID,
			StartDate: from.Format("2006-01-02"),
			EndDate:   to.AddDate(0, 0, -1).Format("2006-01-02"),
			LossUnits: lossUnits,
			SaleCount: len(sales),
		}
		for _, s := range sales {
			resp.TotalRevenue += s.TotalAmount
			dayOf(s.CreatedAt).Revenue += s.TotalAmount
		}
		for _, p := range purchases {
			resp.PurchaseCost += p.TotalCost
			dayOf(p.CreatedAt).PurchaseCost += p.TotalCost
		}
		resp.NetProfit = resp.TotalRevenue - resp.PurchaseCost

		// days in order, empty days included so charts line up
		resp.DailyBreakdown = make([]DailyFigure, 0, len(daily))
		for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
			key := d.Format("2006-01-02")
			if fig, ok := daily[key]; ok {
				resp.DailyBreakdown = append(resp.DailyBreakdown, *fig)
			} else {
				resp.DailyBreakdown = append(resp.DailyBreakdown, DailyFigure{Date: key})
			}
		}

		return c.JSON(resp)
	}
}

type LossBreakdownRow struct {
	Reason string  `json:"reason"`
	Units  float64 `json:"units"`
	Count  int64   `json:"count"`
}

// GET /api/reports/loss-breakdown?from=&to=
func LossBreakdownHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := resolveShopIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}

		var rows []LossBreakdownRow
		err = database.DB.Model(&models.InventoryAdjustment{}).
			Select("reason, COALESCE(SUM(quantity), 0) AS units, COUNT(*) AS count").
			Where("shop_id = ? AND reason <> ? AND created_at >= ? AND created_at < ?",
				shopID, models.ReasonManualCorrection, from, to).
			Group("reason").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load adjustments")
		}

		if rows == nil {
			rows = []LossBreakdownRow{}
		}
		return c.JSON(rows)
	}
}
