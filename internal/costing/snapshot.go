package costing

import (
	"fmt"
	"time"

	"recete-backend/internal/changelog"
	"recete-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DayOf: takvim günü anahtarı (saat bilgisi atılır, UTC)
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SnapshotNow - Reçetenin güncel maliyetini ölçeksiz hesaplar ve (reçete, gün)
// için snapshot satırını upsert eder. Aynı gün ikinci çağrı ilk satırın üzerine
// yazar; ikinci satır asla açılmaz. Toplam veya birim maliyet hesaplanamıyorsa
// (fiyatsız reçete) snapshot atlanır, hata üretilmez.
func SnapshotNow(tx *gorm.DB, recipeID uint, triggerSource string) error {
	b, err := ComputeCost(tx, recipeID, nil)
	if err != nil {
		return err
	}
	if !b.TotalCostRecent.Valid || !b.CostPerOutputUnit.Valid {
		return nil
	}

	snap := models.CostSnapshot{
		RecipeID:          recipeID,
		SnapshotDate:      DayOf(time.Now()),
		TotalCost:         b.TotalCostRecent.Decimal.Round(totalDP),
		CostPerOutputUnit: b.CostPerOutputUnit.Decimal.Round(totalDP),
		TriggerSource:     triggerSource,
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "recipe_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_cost", "cost_per_output_unit", "trigger_source", "updated_at",
		}),
	}).Create(&snap).Error
}

// BumpStructuralChange - Menü tarafının bayatlık kontrolü için kullanılan
// işareti günceller. Salt okuma işlemlerinde asla çağrılmaz.
func BumpStructuralChange(tx *gorm.DB, recipeID uint) error {
	return tx.Model(&models.Recipe{}).
		Where("id = ?", recipeID).
		Update("structural_changed_at", time.Now()).Error
}

// Propagate - Yapısal bir değişiklikten sonra reçetenin kendisini ve onu
// DOĞRUDAN alt reçete olarak kullanan reçeteleri (sadece bir üst seviye,
// büyük ebeveynler değil) yeniden snapshot'lar ve işaretlerini günceller.
func Propagate(tx *gorm.DB, recipeID uint, triggerSource string) error {
	if err := SnapshotNow(tx, recipeID, triggerSource); err != nil {
		return err
	}
	if err := BumpStructuralChange(tx, recipeID); err != nil {
		return err
	}

	parents, err := directParents(tx, recipeID)
	if err != nil {
		return err
	}
	for _, parentID := range parents {
		if err := SnapshotNow(tx, parentID, triggerSource); err != nil {
			return err
		}
		if err := BumpStructuralChange(tx, parentID); err != nil {
			return err
		}
	}
	return nil
}

// PropagateFromIngredientPriceChange - Katalog fiyatı değiştiğinde çağrılır.
// Malzemeyi doğrudan kullanan reçeteler VE onların bir üst seviyesi
// (malzemeyi kullanan reçeteleri içeren reçeteler) snapshot'lanır,
// işaretlenir ve her biri için aktörsüz bir değişiklik kaydı yazılır.
// İki seviyeden derine inilmez. Tetikleyen yazımla aynı transaction'da
// çalıştırılmalı ki etkilenen reçetelerin bir kısmı yarıda kalmasın.
func PropagateFromIngredientPriceChange(tx *gorm.DB, ingredientID uint, priceDelta decimal.Decimal) error {
	var ing models.Ingredient
	if err := tx.First(&ing, ingredientID).Error; err != nil {
		return fmt.Errorf("malzeme bulunamadı: %w", err)
	}

	var direct []uint
	if err := tx.Model(&models.IngredientLine{}).
		Where("ingredient_id = ?", ingredientID).
		Distinct().
		Pluck("recipe_id", &direct).Error; err != nil {
		return err
	}

	// Doğrudan kullananlar + bir seviye üstü, sıra korunarak tekilleştirilir
	seen := make(map[uint]bool)
	var affected []uint
	for _, id := range direct {
		if !seen[id] {
			seen[id] = true
			affected = append(affected, id)
		}
	}
	for _, id := range direct {
		parents, err := directParents(tx, id)
		if err != nil {
			return err
		}
		for _, parentID := range parents {
			if !seen[parentID] {
				seen[parentID] = true
				affected = append(affected, parentID)
			}
		}
	}

	deltaStr := priceDelta.StringFixed(unitPriceDP)
	if !priceDelta.IsNegative() {
		deltaStr = "+" + deltaStr
	}
	summary := fmt.Sprintf("Malzeme fiyatı değişti: %s (%s)", ing.Name, deltaStr)

	for _, recipeID := range affected {
		if err := SnapshotNow(tx, recipeID, "ingredient_price_change"); err != nil {
			return err
		}
		if err := BumpStructuralChange(tx, recipeID); err != nil {
			return err
		}
		if err := changelog.Write(tx, changelog.EntryOptions{
			RecipeID: recipeID,
			Summary:  summary,
		}); err != nil {
			return err
		}
	}
	return nil
}

// directParents: reçeteyi doğrudan alt reçete olarak içeren reçeteler
func directParents(tx *gorm.DB, recipeID uint) ([]uint, error) {
	var parents []uint
	err := tx.Model(&models.SubRecipeLine{}).
		Where("child_recipe_id = ?", recipeID).
		Distinct().
		Pluck("recipe_id", &parents).Error
	return parents, err
}
