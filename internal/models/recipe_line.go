package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IngredientLine - Reçetenin bir malzeme satırı. Reçeteyle birlikte silinir.
type IngredientLine struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"index;not null"`
	IngredientID uint       `gorm:"index;not null"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID"`

	Quantity decimal.Decimal `gorm:"type:decimal(12,4);not null"` // miktar (> 0)

	// Opsiyonel birim: malzemenin standart birimiyle aynı aileden olmalı
	UnitOverride *string `gorm:"size:10"`

	// Bu satıra özgü hazırlık firesi sonrası kullanılabilir oran (0,100], varsayılan 100.
	// Malzemenin katalogdaki varsayılanından bağımsızdır.
	YieldPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:100"`

	Position int    `gorm:"not null;default:0"`
	Note     string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubRecipeLine - Ana reçeteden alt reçeteye yönlü kenar.
// PortionsNeeded TÜM parti için gereken miktardır, porsiyon başına değil.
type SubRecipeLine struct {
	ID            uint    `gorm:"primaryKey"`
	RecipeID      uint    `gorm:"index;not null"` // ana reçete
	ChildRecipeID uint    `gorm:"index;not null"` // alt reçete (zayıf referans)
	Child         *Recipe `gorm:"foreignKey:ChildRecipeID"`

	// Alt reçetenin çıktı biriminde (veya uyumlu unit_override biriminde) miktar
	PortionsNeeded decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	UnitOverride   *string         `gorm:"size:10"`

	Position int    `gorm:"not null;default:0"`
	Note     string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
