package units

import "github.com/shopspring/decimal"

type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Milliliter Unit = "ml"
	Liter      Unit = "ltr"
	Each       Unit = "each"
	Portion    Unit = "portion"
)

type family string

const (
	familyMass    family = "mass"
	familyVolume  family = "volume"
	familyCount   family = "count"
	familyPortion family = "portion"
)

// families: her birimin ailesi ve aile tabanına (g, ml) göre çarpanı.
// 1 kg = 1000 g, 1 ltr = 1000 ml.
var families = map[Unit]struct {
	family family
	factor decimal.Decimal
}{
	Gram:       {familyMass, decimal.NewFromInt(1)},
	Kilogram:   {familyMass, decimal.NewFromInt(1000)},
	Milliliter: {familyVolume, decimal.NewFromInt(1)},
	Liter:      {familyVolume, decimal.NewFromInt(1000)},
	Each:       {familyCount, decimal.NewFromInt(1)},
	Portion:    {familyPortion, decimal.NewFromInt(1)},
}

// IsValid: birim destekleniyor mu?
func IsValid(u Unit) bool {
	_, ok := families[u]
	return ok
}

// Compatible: iki birim aynı ailede mi? (kg-g evet, kg-ml hayır)
func Compatible(a, b Unit) bool {
	fa, okA := families[a]
	fb, okB := families[b]
	return okA && okB && fa.family == fb.family
}

// Convert: değeri bir birimden diğerine çevirir.
// Aynı birim ise değer olduğu gibi döner. Farklı aileler arasında çevirme
// yapılmaz; değer DEĞİŞMEDEN döner ve ok=false olur — çağıran taraf bunu
// veri kalitesi uyarısı olarak gösterebilir, hesaplama patlatılmaz.
func Convert(value decimal.Decimal, from, to Unit) (decimal.Decimal, bool) {
	if from == to {
		return value, true
	}
	if !Compatible(from, to) {
		return value, false
	}
	return value.Mul(families[from].factor).Div(families[to].factor), true
}

// CompatibleUnits: birimin ailesindeki tüm birimler (picker listeleri ve
// unit_override doğrulaması için).
func CompatibleUnits(u Unit) []Unit {
	f, ok := families[u]
	if !ok {
		return nil
	}
	// Sabit sırada dön, testler ve UI için deterministik olsun
	ordered := []Unit{Gram, Kilogram, Milliliter, Liter, Each, Portion}
	var out []Unit
	for _, candidate := range ordered {
		if families[candidate].family == f.family {
			out = append(out, candidate)
		}
	}
	return out
}
