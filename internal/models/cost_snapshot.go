package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostSnapshot - Reçete başına günde en fazla bir maliyet gözlemi.
// Aynı gün ikinci yazım ilk kaydın ÜZERİNE yazar (upsert), ikinci satır açılmaz.
// Reçete silinmedikçe silinmez.
type CostSnapshot struct {
	ID       uint `gorm:"primaryKey"`
	RecipeID uint `gorm:"uniqueIndex:idx_snapshot_recipe_day;not null"`

	// Takvim günü (saat bilgisi sıfırlanmış)
	SnapshotDate time.Time `gorm:"uniqueIndex:idx_snapshot_recipe_day;not null"`

	TotalCost         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPerOutputUnit decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Bu kaydı hangi olay tetikledi? (ör: "ingredient_line_change", "ingredient_price_change")
	TriggerSource string `gorm:"size:50"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
