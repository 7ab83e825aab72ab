package costing

import (
	"recete-backend/internal/models"

	"github.com/shopspring/decimal"
)

// unitPriceDP: birim fiyatlarda tutulan ondalık hane sayısı
const unitPriceDP = 6

// ResolvedPrice - Bir malzeme satırı için çözülmüş etkin birim fiyatlar.
// Recent: en güncel gözlem (tarih eşitse en son eklenen kayıt).
// Min/Max: tüm gözlemler arasında en düşük/yüksek.
// Üçü de fire oranına göre düzeltilmiştir: fiyat / (yield/100).
type ResolvedPrice struct {
	Recent decimal.NullDecimal
	Min    decimal.NullDecimal
	Max    decimal.NullDecimal

	// Ne tedarikçi kaydı ne elle girilmiş fiyat var (is_free hariç)
	HasNoPrice bool
	// Tedarikçi kaydı yok, elle girilmiş fiyat kullanıldı
	IsManualPrice bool
}

// ResolveEffectivePrice - Tedarikçi gözlemleri + opsiyonel elle girilmiş fiyattan
// recent/min/max etkin fiyatları üretir. Fiyat eksikliği hata değildir; bayraklarla
// işaretlenir ve hesaplama null maliyetlerle devam eder.
func ResolveEffectivePrice(prices []models.IngredientPrice, manualPrice *decimal.Decimal, isFree bool, yieldPercent decimal.Decimal) ResolvedPrice {
	if isFree {
		zero := decimal.NewNullDecimal(decimal.Zero)
		return ResolvedPrice{Recent: zero, Min: zero, Max: zero}
	}

	if len(prices) == 0 {
		if manualPrice == nil {
			return ResolvedPrice{HasNoPrice: true}
		}
		p := adjustForYield(*manualPrice, yieldPercent)
		v := decimal.NewNullDecimal(p)
		return ResolvedPrice{Recent: v, Min: v, Max: v, IsManualPrice: true}
	}

	recent := prices[0]
	min := prices[0].PricePerUnit
	max := prices[0].PricePerUnit
	for _, p := range prices[1:] {
		// Tarih eşitliğinde en son eklenen (büyük ID) kazanır
		if p.ObservedDate.After(recent.ObservedDate) ||
			(p.ObservedDate.Equal(recent.ObservedDate) && p.ID > recent.ID) {
			recent = p
		}
		if p.PricePerUnit.LessThan(min) {
			min = p.PricePerUnit
		}
		if p.PricePerUnit.GreaterThan(max) {
			max = p.PricePerUnit
		}
	}

	return ResolvedPrice{
		Recent: decimal.NewNullDecimal(adjustForYield(recent.PricePerUnit, yieldPercent)),
		Min:    decimal.NewNullDecimal(adjustForYield(min, yieldPercent)),
		Max:    decimal.NewNullDecimal(adjustForYield(max, yieldPercent)),
	}
}

// adjustForYield: fire düzeltmesi. Fire arttıkça kullanılabilir birim başına
// etkin maliyet artar: fiyat / (yield/100).
func adjustForYield(price decimal.Decimal, yieldPercent decimal.Decimal) decimal.Decimal {
	if yieldPercent.LessThanOrEqual(decimal.Zero) || yieldPercent.GreaterThan(decimal.NewFromInt(100)) {
		yieldPercent = decimal.NewFromInt(100)
	}
	return price.Div(yieldPercent.Div(decimal.NewFromInt(100))).Round(unitPriceDP)
}
