package recipes

import (
	"fmt"

	"recete-backend/internal/auth"
	"recete-backend/internal/changelog"
	"recete-backend/internal/costing"
	"recete-backend/internal/database"
	"recete-backend/internal/models"
	"recete-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type IngredientLineResponse struct {
	ID             uint             `json:"id"`
	RecipeID       uint             `json:"recipe_id"`
	IngredientID   uint             `json:"ingredient_id"`
	IngredientName string           `json:"ingredient_name"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Unit           string           `json:"unit"` // override veya malzemenin standart birimi
	UnitOverride   *string          `json:"unit_override,omitempty"`
	YieldPercent   decimal.Decimal  `json:"yield_percent"`
	Position       int              `json:"position"`
	Note           string           `json:"note"`
}

type CreateIngredientLineRequest struct {
	IngredientID uint             `json:"ingredient_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitOverride *string          `json:"unit_override"`
	YieldPercent *decimal.Decimal `json:"yield_percent"`
	Position     *int             `json:"position"`
	Note         string           `json:"note"`
}

type UpdateIngredientLineRequest struct {
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitOverride *string          `json:"unit_override"`
	YieldPercent *decimal.Decimal `json:"yield_percent"`
	Position     *int             `json:"position"`
	Note         *string          `json:"note"`
}

func toIngredientLineResponse(l *models.IngredientLine) IngredientLineResponse {
	unit := l.Ingredient.StandardUnit
	if l.UnitOverride != nil && *l.UnitOverride != "" {
		unit = *l.UnitOverride
	}
	return IngredientLineResponse{
		ID:             l.ID,
		RecipeID:       l.RecipeID,
		IngredientID:   l.IngredientID,
		IngredientName: l.Ingredient.Name,
		Quantity:       l.Quantity,
		Unit:           unit,
		UnitOverride:   l.UnitOverride,
		YieldPercent:   l.YieldPercent,
		Position:       l.Position,
		Note:           l.Note,
	}
}

func toIngredientLineResponses(lines []models.IngredientLine) []IngredientLineResponse {
	res := make([]IngredientLineResponse, 0, len(lines))
	for i := range lines {
		res = append(res, toIngredientLineResponse(&lines[i]))
	}
	return res
}

// validateUnitOverride: override birimi malzemenin standart birimiyle aynı
// aileden olmalı, yoksa satır reddedilir
func validateUnitOverride(override *string, standardUnit string) error {
	if override == nil || *override == "" {
		return nil
	}
	u := units.Unit(*override)
	if !units.IsValid(u) {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Bilinmeyen birim: %s", *override))
	}
	if !units.Compatible(u, units.Unit(standardUnit)) {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Birim uyumsuz: %s, malzemenin standart birimi %s ile aynı ailede değil", *override, standardUnit))
	}
	return nil
}

func validateYieldPercent(y decimal.Decimal) error {
	if !y.IsPositive() || y.GreaterThan(decimal.NewFromInt(100)) {
		return fiber.NewError(fiber.StatusBadRequest, "yield_percent (0, 100] aralığında olmalı")
	}
	return nil
}

// POST /api/recipes/:id/ingredient-lines
func AddIngredientLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r models.Recipe
		if err := database.DB.First(&r, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		var body CreateIngredientLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var ing models.Ingredient
		if err := database.DB.First(&ing, "id = ?", body.IngredientID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		if !body.Quantity.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Miktar pozitif olmalı")
		}
		if err := validateUnitOverride(body.UnitOverride, ing.StandardUnit); err != nil {
			return err
		}

		// Satır firesi verilmediyse katalog varsayılanı, o da yoksa 100
		yield := decimal.NewFromInt(100)
		if ing.DefaultYieldPercent.IsPositive() {
			yield = ing.DefaultYieldPercent
		}
		if body.YieldPercent != nil {
			yield = *body.YieldPercent
		}
		if err := validateYieldPercent(yield); err != nil {
			return err
		}

		position := 0
		if body.Position != nil {
			position = *body.Position
		} else {
			var count int64
			database.DB.Model(&models.IngredientLine{}).Where("recipe_id = ?", r.ID).Count(&count)
			position = int(count)
		}

		line := models.IngredientLine{
			RecipeID:     r.ID,
			IngredientID: ing.ID,
			Quantity:     body.Quantity,
			UnitOverride: body.UnitOverride,
			YieldPercent: yield,
			Position:     position,
			Note:         body.Note,
		}

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			if err := changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  r.ID,
				Summary:   fmt.Sprintf("Malzeme satırı eklendi: %s", ing.Name),
				ActorID:   actorID,
				ActorName: actorName,
			}); err != nil {
				return err
			}
			return costing.Propagate(tx, r.ID, "ingredient_line_change")
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme satırı eklenemedi")
		}

		line.Ingredient = ing
		return c.Status(fiber.StatusCreated).JSON(toIngredientLineResponse(&line))
	}
}

// PUT /api/recipes/:id/ingredient-lines/:lineId
func UpdateIngredientLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var line models.IngredientLine
		if err := database.DB.Preload("Ingredient").
			First(&line, "id = ? AND recipe_id = ?", c.Params("lineId"), c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme satırı bulunamadı")
		}

		var body UpdateIngredientLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Quantity != nil {
			if !body.Quantity.IsPositive() {
				return fiber.NewError(fiber.StatusBadRequest, "Miktar pozitif olmalı")
			}
			line.Quantity = *body.Quantity
		}
		if body.UnitOverride != nil {
			if err := validateUnitOverride(body.UnitOverride, line.Ingredient.StandardUnit); err != nil {
				return err
			}
			if *body.UnitOverride == "" {
				line.UnitOverride = nil
			} else {
				line.UnitOverride = body.UnitOverride
			}
		}
		if body.YieldPercent != nil {
			if err := validateYieldPercent(*body.YieldPercent); err != nil {
				return err
			}
			line.YieldPercent = *body.YieldPercent
		}
		if body.Position != nil {
			line.Position = *body.Position
		}
		if body.Note != nil {
			line.Note = *body.Note
		}

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&line).Error; err != nil {
				return err
			}
			if err := changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  line.RecipeID,
				Summary:   fmt.Sprintf("Malzeme satırı güncellendi: %s", line.Ingredient.Name),
				ActorID:   actorID,
				ActorName: actorName,
			}); err != nil {
				return err
			}
			return costing.Propagate(tx, line.RecipeID, "ingredient_line_change")
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme satırı güncellenemedi")
		}

		return c.JSON(toIngredientLineResponse(&line))
	}
}

// DELETE /api/recipes/:id/ingredient-lines/:lineId
func DeleteIngredientLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var line models.IngredientLine
		if err := database.DB.Preload("Ingredient").
			First(&line, "id = ? AND recipe_id = ?", c.Params("lineId"), c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme satırı bulunamadı")
		}

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&line).Error; err != nil {
				return err
			}
			if err := changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  line.RecipeID,
				Summary:   fmt.Sprintf("Malzeme satırı silindi: %s", line.Ingredient.Name),
				ActorID:   actorID,
				ActorName: actorName,
			}); err != nil {
				return err
			}
			return costing.Propagate(tx, line.RecipeID, "ingredient_line_change")
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme satırı silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
