package recipes

import (
	"fmt"
	"strings"
	"time"

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

type RecipeResponse struct {
	ID                  uint              `json:"id"`
	Name                string            `json:"name"`
	Kind                models.RecipeKind `json:"kind"`
	OutputMode          models.OutputMode `json:"output_mode"`
	PortionCount        *int              `json:"portion_count,omitempty"`
	YieldQuantity       *decimal.Decimal  `json:"yield_quantity,omitempty"`
	YieldUnit           *string           `json:"yield_unit,omitempty"`
	OutputQuantity      decimal.Decimal   `json:"output_quantity"`
	OutputUnit          string            `json:"output_unit"`
	Archived            bool              `json:"archived"`
	PrepMinutes         int               `json:"prep_minutes"`
	CookMinutes         int               `json:"cook_minutes"`
	Note                string            `json:"note"`
	StructuralChangedAt time.Time         `json:"structural_changed_at"`
}

type CreateRecipeRequest struct {
	Name          string           `json:"name"`
	Kind          string           `json:"kind"`
	OutputMode    string           `json:"output_mode"`
	PortionCount  *int             `json:"portion_count"`
	YieldQuantity *decimal.Decimal `json:"yield_quantity"`
	YieldUnit     *string          `json:"yield_unit"`
	PrepMinutes   int              `json:"prep_minutes"`
	CookMinutes   int              `json:"cook_minutes"`
	Note          string           `json:"note"`
}

type UpdateRecipeRequest struct {
	Name          *string          `json:"name"`
	Kind          *string          `json:"kind"`
	OutputMode    *string          `json:"output_mode"`
	PortionCount  *int             `json:"portion_count"`
	YieldQuantity *decimal.Decimal `json:"yield_quantity"`
	YieldUnit     *string          `json:"yield_unit"`
	PrepMinutes   *int             `json:"prep_minutes"`
	CookMinutes   *int             `json:"cook_minutes"`
	Note          *string          `json:"note"`
}

func toRecipeResponse(r *models.Recipe) RecipeResponse {
	outQty, outUnit := r.Output()
	return RecipeResponse{
		ID:                  r.ID,
		Name:                r.Name,
		Kind:                r.Kind,
		OutputMode:          r.OutputMode,
		PortionCount:        r.PortionCount,
		YieldQuantity:       r.YieldQuantity,
		YieldUnit:           r.YieldUnit,
		OutputQuantity:      outQty,
		OutputUnit:          string(outUnit),
		Archived:            r.Archived,
		PrepMinutes:         r.PrepMinutes,
		CookMinutes:         r.CookMinutes,
		Note:                r.Note,
		StructuralChangedAt: r.StructuralChangedAt,
	}
}

// validateOutputFields: Bulk mod pozitif yield_quantity + geçerli yield_unit ister;
// Portioned modda yield alanları bulunmaz, portion_count >= 1 olmalı.
func validateOutputFields(r *models.Recipe) error {
	switch r.OutputMode {
	case models.ModeBulk:
		if r.YieldQuantity == nil || !r.YieldQuantity.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Bulk çıktı için pozitif yield_quantity zorunlu")
		}
		if r.YieldUnit == nil || !units.IsValid(units.Unit(*r.YieldUnit)) || units.Unit(*r.YieldUnit) == units.Each || units.Unit(*r.YieldUnit) == units.Portion {
			return fiber.NewError(fiber.StatusBadRequest, "Bulk çıktı için yield_unit g, kg, ml veya ltr olmalı")
		}
		r.PortionCount = nil
	case models.ModePortioned:
		if r.PortionCount == nil {
			defaultCount := 1
			r.PortionCount = &defaultCount
		}
		if *r.PortionCount < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "portion_count en az 1 olmalı")
		}
		r.YieldQuantity = nil
		r.YieldUnit = nil
	default:
		return fiber.NewError(fiber.StatusBadRequest, "output_mode 'portioned' veya 'bulk' olmalı")
	}

	if r.Kind != models.KindComponent && r.Kind != models.KindDish {
		return fiber.NewError(fiber.StatusBadRequest, "kind 'component' veya 'dish' olmalı")
	}
	return nil
}

// POST /api/recipes
func CreateRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}

		r := models.Recipe{
			Name:                body.Name,
			Kind:                models.RecipeKind(body.Kind),
			OutputMode:          models.OutputMode(body.OutputMode),
			PortionCount:        body.PortionCount,
			YieldQuantity:       body.YieldQuantity,
			YieldUnit:           body.YieldUnit,
			PrepMinutes:         body.PrepMinutes,
			CookMinutes:         body.CookMinutes,
			Note:                body.Note,
			StructuralChangedAt: time.Now(),
		}
		if err := validateOutputFields(&r); err != nil {
			return err
		}

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			return changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  r.ID,
				Summary:   fmt.Sprintf("Reçete oluşturuldu: %s", r.Name),
				ActorID:   actorID,
				ActorName: actorName,
			})
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toRecipeResponse(&r))
	}
}

// GET /api/recipes?archived=true|false
func ListRecipesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.Recipe{}).Order("name asc")
		switch c.Query("archived") {
		case "true":
			q = q.Where("archived = ?", true)
		case "", "false":
			q = q.Where("archived = ?", false)
		}

		var recipeList []models.Recipe
		if err := q.Find(&recipeList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçeteler listelenemedi")
		}

		res := make([]RecipeResponse, 0, len(recipeList))
		for i := range recipeList {
			res = append(res, toRecipeResponse(&recipeList[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/recipes/:id (satırlarıyla birlikte)
func GetRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r models.Recipe
		if err := database.DB.
			Preload("IngredientLines", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
			Preload("IngredientLines.Ingredient").
			Preload("SubRecipeLines", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
			Preload("SubRecipeLines.Child").
			First(&r, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		return c.JSON(fiber.Map{
			"recipe":           toRecipeResponse(&r),
			"ingredient_lines": toIngredientLineResponses(r.IngredientLines),
			"sub_recipe_lines": toSubRecipeLineResponses(r.SubRecipeLines),
		})
	}
}

// PUT /api/recipes/:id
func UpdateRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r models.Recipe
		if err := database.DB.First(&r, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		var body UpdateRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			r.Name = name
		}
		if body.Kind != nil {
			r.Kind = models.RecipeKind(*body.Kind)
		}
		if body.OutputMode != nil {
			r.OutputMode = models.OutputMode(*body.OutputMode)
		}
		if body.PortionCount != nil {
			r.PortionCount = body.PortionCount
		}
		if body.YieldQuantity != nil {
			r.YieldQuantity = body.YieldQuantity
		}
		if body.YieldUnit != nil {
			r.YieldUnit = body.YieldUnit
		}
		if body.PrepMinutes != nil {
			r.PrepMinutes = *body.PrepMinutes
		}
		if body.CookMinutes != nil {
			r.CookMinutes = *body.CookMinutes
		}
		if body.Note != nil {
			r.Note = *body.Note
		}

		if err := validateOutputFields(&r); err != nil {
			return err
		}

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&r).Error; err != nil {
				return err
			}
			if err := changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  r.ID,
				Summary:   fmt.Sprintf("Reçete güncellendi: %s", r.Name),
				ActorID:   actorID,
				ActorName: actorName,
			}); err != nil {
				return err
			}
			return costing.Propagate(tx, r.ID, "recipe_updated")
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete güncellenemedi")
		}

		return c.JSON(toRecipeResponse(&r))
	}
}

// POST /api/recipes/:id/archive
func ArchiveRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r models.Recipe
		if err := database.DB.First(&r, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		if r.Archived {
			return fiber.NewError(fiber.StatusBadRequest, "Reçete zaten arşivlenmiş")
		}
		r.Archived = true

		actorID, actorName := auth.ActorFromCtx(c)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&r).Error; err != nil {
				return err
			}
			if err := changelog.Write(tx, changelog.EntryOptions{
				RecipeID:  r.ID,
				Summary:   fmt.Sprintf("Reçete arşivlendi: %s", r.Name),
				ActorID:   actorID,
				ActorName: actorName,
			}); err != nil {
				return err
			}
			return costing.BumpStructuralChange(tx, r.ID)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete arşivlenemedi")
		}

		return c.JSON(toRecipeResponse(&r))
	}
}

// DELETE /api/recipes/:id
func DeleteRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r models.Recipe
		if err := database.DB.First(&r, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		// Başka reçetelerin alt reçetesi olarak kullanılıyorsa silinemez;
		// sessizce koparmak ana reçetelerin maliyetini bozar
		var refCount int64
		database.DB.Model(&models.SubRecipeLine{}).Where("child_recipe_id = ?", r.ID).Count(&refCount)
		if refCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu reçete başka reçetelerde alt reçete olarak kullanılıyor, önce o satırları kaldırın")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("recipe_id = ?", r.ID).Delete(&models.IngredientLine{}).Error; err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", r.ID).Delete(&models.SubRecipeLine{}).Error; err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", r.ID).Delete(&models.CostSnapshot{}).Error; err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", r.ID).Delete(&models.ChangeLogEntry{}).Error; err != nil {
				return err
			}
			return tx.Delete(&r).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
