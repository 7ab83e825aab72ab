package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient - Malzeme kataloğunun bu çekirdekte kullanılan salt okunur görünümü.
// Katalog yönetimi (fatura okuma, bütçe vs.) ayrı sistemin işi.
type Ingredient struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:150;not null;unique"`
	StandardUnit string `gorm:"size:10;not null"` // g, kg, ml, ltr, each

	// Katalog varsayılanı; satır oluşturulurken yield_percent verilmezse kullanılır
	DefaultYieldPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:100"`

	// Tedarikçi kaydı yoksa devreye giren elle girilmiş birim fiyat
	ManualPrice *decimal.Decimal `gorm:"type:decimal(12,6)"`

	// Ücretsiz malzeme (su gibi): fiyat uyarısı üretilmez
	IsFree bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Prices []IngredientPrice `gorm:"constraint:OnDelete:CASCADE"`
}

// IngredientPrice - Tedarikçi fiyat gözlemi. Kayıtlar değiştirilmez, yenisi eklenir.
type IngredientPrice struct {
	ID           uint     `gorm:"primaryKey"`
	IngredientID uint     `gorm:"index;not null"`
	SupplierID   uint     `gorm:"index;not null"`
	Supplier     Supplier `gorm:"foreignKey:SupplierID"`

	PricePerUnit decimal.Decimal `gorm:"type:decimal(12,6);not null"` // standart birim başına fiyat
	ObservedDate time.Time       `gorm:"index;not null"`

	CreatedAt time.Time
}

type Supplier struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null;unique"`
	Contact   string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
