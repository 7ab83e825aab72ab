package recipes

import (
	"fmt"

	"recete-backend/internal/auth"
	"recete-backend/internal/changelog"
	"recete-backend/internal/config"
	"recete-backend/internal/costing"
	"recete-backend/internal/database"
	"recete-backend/internal/models"
	"recete-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubRecipeLineResponse struct {
	ID             uint            `json:"id"`
	RecipeID       uint            `json:"recipe_id"`
	ChildRecipeID  uint            `json:"child_recipe_id"`
	ChildName      string          `json:"child_name"`
	PortionsNeeded decimal.Decimal `json:"portions_needed"`
	Unit           string          `json:"unit"` // override veya alt reçetenin çıktı birimi
	UnitOverride   *string         `json:"unit_override,omitempty"`
	Position       int             `json:"position"`
	Note           string          `json:"note"`
}

type CreateSubRecipeLineRequest struct {
	ChildRecipeID  uint            `json:"child_recipe_id"`
	PortionsNeeded decimal.Decimal `json:"portions_needed"`
	UnitOverride   *string         `json:"unit_override"`
	Position       *int            `json:"position"`
	Note           string          `json:"note"`
}

type UpdateSubRecipeLineRequest struct {
	PortionsNeeded *decimal.Decimal `json:"portions_needed"`
	UnitOverride   *string          `json:"unit_override"`
	Position       *int             `json:"position"`
	Note           *string          `json:"note"`
}

func toSubRecipeLineResponse(l *models.SubRecipeLine) SubRecipeLineResponse {
	childName := ""
	unit := ""
	if l.Child != nil {
		childName = l.Child.Name
		_, outUnit := l.Child.Output()
		unit = string(outUnit)
	}
	if l.UnitOverride != nil && *l.UnitOverride != "" {
		unit = *l.UnitOverride
	}
	return SubRecipeLineResponse{
		ID:             l.ID,
		RecipeID:       l.RecipeID,
		ChildRecipeID:  l.ChildRecipeID,
		ChildName:      childName,
		PortionsNeeded: l.PortionsNeeded,
		Unit:           unit,
		UnitOverride:   l.UnitOverride,
		Position:       l.Position,
		Note:           l.Note,
	}
}

func toSubRecipeLineResponses(lines []models.SubRecipeLine) []SubRecipeLineResponse {
	res := make([]SubRecipeLineResponse, 0, len(lines))
	for i := range lines {
		res = append(res, toSubRecipeLineResponse(&lines[i]))
	}
	return res
}

// validateSubRecipeUnitOverride: override birimi alt reçetenin çıktı birimiyle
// aynı aileden olmalı
func validateSubRecipeUnitOverride(override *string, child *models.Recipe) error {
	if override == nil || *override == "" {
		return nil
	}
	u := units.Unit(*override)
	if !units.IsValid(u) {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Bilinmeyen birim: %s", *override))
	}
	_, childUnit := child.Output()
	if !units.Compatible(u, childUnit) {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Birim uyumsuz: %s, alt reçetenin çıktı birimi %s ile aynı ailede değil", *override, childUnit))
	}
	return nil
}

// POST /api/recipes/:id/sub-recipe-lines
func AddSubRecipeLineHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var parent models.Recipe
		if err := database.DB.First(&parent, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		var body CreateSubRecipeLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.ChildRecipeID == parent.ID {
			return fiber.NewError(fiber.StatusBadRequest, "Reçete kendisini alt reçete olarak içeremez")
		}

		var child models.Recipe
		if err := database.DB.First(&child, "id = ?", body.ChildRecipeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Alt reçete bulunamadı")
		}

		if !body.PortionsNeeded.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Miktar pozitif olmalı")
		}
		if err := validateSubRecipeUnitOverride(body.UnitOverride, &child); err != nil {
			return err
		}

		position := 0
		if body.Position != nil {
			position = *body.Position
		} else {
			var count int64
			database.DB.Model(&models.SubRecipeLine{}).Where("recipe_id = ?", parent.ID).Count(&count)
			position = int(count)
		}

		line := models.SubRecipeLine{
			RecipeID:       parent.ID,
			ChildRecipeID:  child.ID,
			PortionsNeeded: body.PortionsNeeded,
			UnitOverride:   body.UnitOverride,
			Position:       position,
			Note:           body.Note,
		}

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			// Döngü kontrolü insert ile aynı transaction'da: eşzamanlı kenar
			// eklemede kontrol ile yazım arasına başka yazım giremez
			cycles, err := costing.WouldCreateCycle(tx, parent.ID, child.ID, cfg.MaxSubRecipeDepth)
			if err != nil {
				return err
			}
			if cycles {
				return fiber.NewError(fiber.StatusBadRequest, "Bu alt reçete eklenirse döngü oluşur")
			}

			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			if err := changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  parent.ID,
				Summary:   fmt.Sprintf("Alt reçete eklendi: %s", child.Name),
				ActorID:   actorID,
				ActorName: actorName,
			}); err != nil {
				return err
			}
			return costing.Propagate(tx, parent.ID, "sub_recipe_line_change")
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Alt reçete satırı eklenemedi")
		}

		line.Child = &child
		return c.Status(fiber.StatusCreated).JSON(toSubRecipeLineResponse(&line))
	}
}

// PUT /api/recipes/:id/sub-recipe-lines/:lineId
func UpdateSubRecipeLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var line models.SubRecipeLine
		if err := database.DB.Preload("Child").
			First(&line, "id = ? AND recipe_id = ?", c.Params("lineId"), c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Alt reçete satırı bulunamadı")
		}

		var body UpdateSubRecipeLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.PortionsNeeded != nil {
			if !body.PortionsNeeded.IsPositive() {
				return fiber.NewError(fiber.StatusBadRequest, "Miktar pozitif olmalı")
			}
			line.PortionsNeeded = *body.PortionsNeeded
		}
		if body.UnitOverride != nil {
			if *body.UnitOverride == "" {
				line.UnitOverride = nil
			} else {
				if line.Child == nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Alt reçete yüklenemedi")
				}
				if err := validateSubRecipeUnitOverride(body.UnitOverride, line.Child); err != nil {
					return err
				}
				line.UnitOverride = body.UnitOverride
			}
		}
		if body.Position != nil {
			line.Position = *body.Position
		}
		if body.Note != nil {
			line.Note = *body.Note
		}

		childName := ""
		if line.Child != nil {
			childName = line.Child.Name
		}

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&line).Error; err != nil {
				return err
			}
			if err := changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  line.RecipeID,
				Summary:   fmt.Sprintf("Alt reçete satırı güncellendi: %s", childName),
				ActorID:   actorID,
				ActorName: actorName,
			}); err != nil {
				return err
			}
			return costing.Propagate(tx, line.RecipeID, "sub_recipe_line_change")
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alt reçete satırı güncellenemedi")
		}

		return c.JSON(toSubRecipeLineResponse(&line))
	}
}

// DELETE /api/recipes/:id/sub-recipe-lines/:lineId
func DeleteSubRecipeLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var line models.SubRecipeLine
		if err := database.DB.Preload("Child").
			First(&line, "id = ? AND recipe_id = ?", c.Params("lineId"), c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Alt reçete satırı bulunamadı")
		}

		childName := ""
		if line.Child != nil {
			childName = line.Child.Name
		}

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&line).Error; err != nil {
				return err
			}
			if err := changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  line.RecipeID,
				Summary:   fmt.Sprintf("Alt reçete satırı silindi: %s", childName),
				ActorID:   actorID,
				ActorName: actorName,
			}); err != nil {
				return err
			}
			return costing.Propagate(tx, line.RecipeID, "sub_recipe_line_change")
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alt reçete satırı silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
