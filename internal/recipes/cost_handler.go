package recipes

import (
	"fmt"
	"strconv"
	"time"

	"recete-backend/internal/config"
	"recete-backend/internal/costing"
	"recete-backend/internal/database"
	"recete-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ChangeAnnotation struct {
	Summary   string    `json:"summary"`
	ActorName string    `json:"actor_name,omitempty"` // sistem kaynaklıysa boş
	CreatedAt time.Time `json:"created_at"`
}

type CostHistoryPoint struct {
	Date              string             `json:"date"`
	TotalCost         decimal.Decimal    `json:"total_cost"`
	CostPerOutputUnit decimal.Decimal    `json:"cost_per_output_unit"`
	TriggerSource     string             `json:"trigger_source"`
	Changes           []ChangeAnnotation `json:"changes"` // aynı güne düşen değişiklik kayıtları
}

// GET /api/recipes/:id/cost?scale_to=
func GetCostHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recipeID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz reçete ID")
		}

		var scaleTo *decimal.Decimal
		if s := c.Query("scale_to"); s != "" {
			v, err := decimal.NewFromString(s)
			if err != nil || !v.IsPositive() {
				return fiber.NewError(fiber.StatusBadRequest, "scale_to pozitif bir sayı olmalı")
			}
			scaleTo = &v
		}

		breakdown, err := costing.ComputeCost(database.DB, uint(recipeID), scaleTo)
		if err != nil {
			if err == costing.ErrRecipeNotFound {
				return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Maliyet hesaplanamadı")
		}

		costing.AttachGPSuggestions(breakdown, cfg.VATMultiplier)
		return c.JSON(breakdown)
	}
}

// GET /api/recipes/:id/cost-history?year=&month=
func CostHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r models.Recipe
		if err := database.DB.First(&r, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		points, err := loadCostHistory(r.ID, c.Query("year"), c.Query("month"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Maliyet geçmişi listelenemedi")
		}

		return c.JSON(fiber.Map{
			"recipe_id":             r.ID,
			"name":                  r.Name,
			"structural_changed_at": r.StructuralChangedAt,
			"history":               points,
		})
	}
}

// GET /api/recipes/:id/cost-history/export (XLSX)
func ExportCostHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r models.Recipe
		if err := database.DB.First(&r, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		points, err := loadCostHistory(r.ID, c.Query("year"), c.Query("month"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Maliyet geçmişi listelenemedi")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)
		headers := []string{"Tarih", "Toplam Maliyet", "Birim Maliyet", "Tetikleyici", "Değişiklikler"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for rowIdx, p := range points {
			changes := ""
			for i, ch := range p.Changes {
				if i > 0 {
					changes += "; "
				}
				changes += ch.Summary
			}
			values := []interface{}{
				p.Date,
				p.TotalCost.InexactFloat64(),
				p.CostPerOutputUnit.InexactFloat64(),
				p.TriggerSource,
				changes,
			}
			for colIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("maliyet-gecmisi-%d.xlsx", r.ID)
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}

// loadCostHistory: snapshot serisi + aynı güne düşen değişiklik kayıtları.
// year/month boşsa tüm geçmiş döner.
func loadCostHistory(recipeID uint, yearStr, monthStr string) ([]CostHistoryPoint, error) {
	snapQuery := database.DB.
		Where("recipe_id = ?", recipeID).
		Order("snapshot_date asc")
	entryQuery := database.DB.
		Where("recipe_id = ?", recipeID).
		Order("created_at asc")

	if yearStr != "" && monthStr != "" {
		year, errY := strconv.Atoi(yearStr)
		month, errM := strconv.Atoi(monthStr)
		if errY == nil && errM == nil && month >= 1 && month <= 12 {
			start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 1, 0)
			snapQuery = snapQuery.Where("snapshot_date >= ? AND snapshot_date < ?", start, end)
			entryQuery = entryQuery.Where("created_at >= ? AND created_at < ?", start, end)
		}
	}

	var snaps []models.CostSnapshot
	if err := snapQuery.Find(&snaps).Error; err != nil {
		return nil, err
	}
	var entries []models.ChangeLogEntry
	if err := entryQuery.Find(&entries).Error; err != nil {
		return nil, err
	}

	entriesByDay := make(map[string][]ChangeAnnotation)
	for _, e := range entries {
		day := costing.DayOf(e.CreatedAt).Format("2006-01-02")
		entriesByDay[day] = append(entriesByDay[day], ChangeAnnotation{
			Summary:   e.Summary,
			ActorName: e.ActorName,
			CreatedAt: e.CreatedAt,
		})
	}

	points := make([]CostHistoryPoint, 0, len(snaps))
	for _, s := range snaps {
		day := costing.DayOf(s.SnapshotDate).Format("2006-01-02")
		changes := entriesByDay[day]
		if changes == nil {
			changes = []ChangeAnnotation{}
		}
		points = append(points, CostHistoryPoint{
			Date:              day,
			TotalCost:         s.TotalCost,
			CostPerOutputUnit: s.CostPerOutputUnit,
			TriggerSource:     s.TriggerSource,
			Changes:           changes,
		})
	}
	return points, nil
}
