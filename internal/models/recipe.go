package models

import (
	"time"

	"recete-backend/internal/units"

	"github.com/shopspring/decimal"
)

type RecipeKind string

const (
	KindComponent RecipeKind = "component" // ara ürün (sos, hamur vs.), menüde satılmaz
	KindDish      RecipeKind = "dish"      // menüde satılan ürün
)

// SuggestsGrossProfit: GP öneri tablosu sadece menü ürünleri için üretilir.
// Yeni bir kind eklenirse bu karar burada, tek yerde verilir.
func (k RecipeKind) SuggestsGrossProfit() bool {
	return k == KindDish
}

type OutputMode string

const (
	ModePortioned OutputMode = "portioned" // çıktı porsiyon sayısıyla ifade edilir
	ModeBulk      OutputMode = "bulk"      // çıktı kg/ltr gibi toplu miktarla ifade edilir
)

type Recipe struct {
	ID         uint       `gorm:"primaryKey"`
	Name       string     `gorm:"size:150;not null"`
	Kind       RecipeKind `gorm:"size:20;not null"`
	OutputMode OutputMode `gorm:"size:20;not null"`

	// Portioned mod: porsiyon sayısı (>= 1, varsayılan 1)
	PortionCount *int

	// Bulk mod: toplam verim miktarı ve birimi (g, kg, ml, ltr)
	YieldQuantity *decimal.Decimal `gorm:"type:decimal(12,4)"`
	YieldUnit     *string          `gorm:"size:10"`

	Archived    bool `gorm:"not null;default:false"`
	PrepMinutes int
	CookMinutes int
	Note        string `gorm:"size:255"`

	// Menü tarafının bayatlık kontrolü için: her yapısal değişiklikte güncellenir,
	// salt okuma işlemlerinde asla dokunulmaz
	StructuralChangedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	IngredientLines []IngredientLine `gorm:"constraint:OnDelete:CASCADE"`
	SubRecipeLines  []SubRecipeLine  `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// Output: reçetenin türetilmiş çıktı miktarı ve birimi.
// Bulk -> (yield_quantity, yield_unit); Portioned -> (portion_count, "portion")
func (r *Recipe) Output() (decimal.Decimal, units.Unit) {
	if r.OutputMode == ModeBulk && r.YieldQuantity != nil && r.YieldUnit != nil {
		return *r.YieldQuantity, units.Unit(*r.YieldUnit)
	}
	count := 1
	if r.PortionCount != nil && *r.PortionCount >= 1 {
		count = *r.PortionCount
	}
	return decimal.NewFromInt(int64(count)), units.Portion
}
