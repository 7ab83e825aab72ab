package costing

import (
	"errors"

	"recete-backend/internal/models"
	"recete-backend/internal/units"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	lineCostDP = 4
	totalDP    = 2
)

var ErrRecipeNotFound = errors.New("reçete bulunamadı")

// gpTargets: GP öneri tablosundaki hedef brüt kâr yüzdeleri
var gpTargets = []int{60, 65, 70, 75, 80}

type GPSuggestion struct {
	TargetGPPercent int             `json:"target_gp_percent"`
	SuggestedPrice  decimal.Decimal `json:"suggested_price"`
}

type IngredientCostLine struct {
	LineID         uint            `json:"line_id"`
	IngredientID   uint            `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"` // satır birimi cinsinden, ölçeklenmiş
	Unit           units.Unit      `json:"unit"`

	// Malzemenin standart birimine çevrilmiş miktar. Birimler uyumsuzsa çevirme
	// yapılmaz ve unit_incompatible işaretlenir (sessizce yanlış sayı üretmek yerine)
	StandardQuantity decimal.Decimal `json:"standard_quantity"`
	StandardUnit     units.Unit      `json:"standard_unit"`
	UnitIncompatible bool            `json:"unit_incompatible,omitempty"`

	YieldPercent decimal.Decimal `json:"yield_percent"`

	UnitPriceRecent decimal.NullDecimal `json:"unit_price_recent"`
	UnitPriceMin    decimal.NullDecimal `json:"unit_price_min"`
	UnitPriceMax    decimal.NullDecimal `json:"unit_price_max"`

	CostRecent decimal.NullDecimal `json:"cost_recent"`
	CostMin    decimal.NullDecimal `json:"cost_min"`
	CostMax    decimal.NullDecimal `json:"cost_max"`

	HasNoPrice    bool   `json:"has_no_price"`
	IsManualPrice bool   `json:"is_manual_price"`
	Note          string `json:"note,omitempty"`
}

type SubRecipeCostLine struct {
	LineID         uint            `json:"line_id"`
	ChildRecipeID  uint            `json:"child_recipe_id"`
	ChildName      string          `json:"child_name"`
	PortionsNeeded decimal.Decimal `json:"portions_needed"` // ölçeklenmiş
	Unit           units.Unit      `json:"unit"`

	// Alt reçetenin toplam çıktısından bu satırın kullandığı oran
	ContributionRatio decimal.Decimal `json:"contribution_ratio"`

	CostRecent decimal.NullDecimal `json:"cost_recent"`
	CostMin    decimal.NullDecimal `json:"cost_min"`
	CostMax    decimal.NullDecimal `json:"cost_max"`

	// Alt reçetenin kendi dökümü, katkı oranıyla ölçeklenmiş (gösterim amaçlı)
	Breakdown *CostBreakdown `json:"breakdown,omitempty"`

	Note string `json:"note,omitempty"`
}

type CostBreakdown struct {
	RecipeID   uint              `json:"recipe_id"`
	Name       string            `json:"name"`
	Kind       models.RecipeKind `json:"kind"`
	OutputMode models.OutputMode `json:"output_mode"`

	OutputQuantity          decimal.Decimal `json:"output_quantity"` // doğal çıktı
	OutputUnit              units.Unit      `json:"output_unit"`
	EffectiveOutputQuantity decimal.Decimal `json:"effective_output_quantity"` // scale_to verildiyse o
	ScaleFactor             decimal.Decimal `json:"scale_factor"`

	Ingredients []IngredientCostLine `json:"ingredients"`
	SubRecipes  []SubRecipeCostLine  `json:"sub_recipes"`

	TotalCostRecent decimal.NullDecimal `json:"total_cost_recent"`
	TotalCostMin    decimal.NullDecimal `json:"total_cost_min"`
	TotalCostMax    decimal.NullDecimal `json:"total_cost_max"`

	CostPerOutputUnit decimal.NullDecimal `json:"cost_per_output_unit"`

	GPSuggestions []GPSuggestion `json:"gp_suggestions,omitempty"`
}

// ComputeCost - Reçetenin toplam maliyetini, birim maliyetini ve satır satır
// dökümünü hesaplar. scaleTo verilirse tüm miktarlar doğal çıktıya oranla
// ölçeklenir (saf doğrusal model, sabit maliyet yok).
//
// Alt reçeteler önce kendi doğal maliyetleriyle hesaplanır; katkı, kullanılan
// miktarın çıktıya oranıyla bulunur. Paylaşılan alt reçeteler çağrı başına
// bir kez hesaplanır (memo haritası); sonlanma garantisi kenar eklemedeki
// döngü kontrolünden gelir.
func ComputeCost(db *gorm.DB, recipeID uint, scaleTo *decimal.Decimal) (*CostBreakdown, error) {
	ca := &calculator{db: db, memo: make(map[uint]*CostBreakdown)}
	return ca.compute(recipeID, scaleTo)
}

type calculator struct {
	db   *gorm.DB
	memo map[uint]*CostBreakdown // reçete ID -> doğal (ölçeksiz) sonuç
}

func (ca *calculator) compute(recipeID uint, scaleTo *decimal.Decimal) (*CostBreakdown, error) {
	if scaleTo == nil {
		if cached, ok := ca.memo[recipeID]; ok {
			return cached, nil
		}
	}

	var recipe models.Recipe
	if err := ca.db.First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	outQty, outUnit := recipe.Output()
	scale := decimal.NewFromInt(1)
	effQty := outQty
	if scaleTo != nil {
		if outQty.IsPositive() {
			scale = scaleTo.Div(outQty)
		}
		effQty = *scaleTo
	}

	b := &CostBreakdown{
		RecipeID:                recipe.ID,
		Name:                    recipe.Name,
		Kind:                    recipe.Kind,
		OutputMode:              recipe.OutputMode,
		OutputQuantity:          outQty,
		OutputUnit:              outUnit,
		EffectiveOutputQuantity: effQty,
		ScaleFactor:             scale,
		Ingredients:             []IngredientCostLine{},
		SubRecipes:              []SubRecipeCostLine{},
	}

	var ingLines []models.IngredientLine
	if err := ca.db.
		Where("recipe_id = ?", recipe.ID).
		Preload("Ingredient").
		Preload("Ingredient.Prices").
		Order("position asc, id asc").
		Find(&ingLines).Error; err != nil {
		return nil, err
	}
	for _, line := range ingLines {
		cl := buildIngredientCostLine(line, scale)
		b.Ingredients = append(b.Ingredients, cl)
		b.TotalCostRecent = addNull(b.TotalCostRecent, cl.CostRecent)
		b.TotalCostMin = addNull(b.TotalCostMin, cl.CostMin)
		b.TotalCostMax = addNull(b.TotalCostMax, cl.CostMax)
	}

	var subLines []models.SubRecipeLine
	if err := ca.db.
		Where("recipe_id = ?", recipe.ID).
		Order("position asc, id asc").
		Find(&subLines).Error; err != nil {
		return nil, err
	}
	for _, line := range subLines {
		scl, err := ca.buildSubRecipeCostLine(line, scale)
		if err != nil {
			return nil, err
		}
		b.SubRecipes = append(b.SubRecipes, scl)
		b.TotalCostRecent = addNull(b.TotalCostRecent, scl.CostRecent)
		b.TotalCostMin = addNull(b.TotalCostMin, scl.CostMin)
		b.TotalCostMax = addNull(b.TotalCostMax, scl.CostMax)
	}

	b.TotalCostRecent = roundNull(b.TotalCostRecent, totalDP)
	b.TotalCostMin = roundNull(b.TotalCostMin, totalDP)
	b.TotalCostMax = roundNull(b.TotalCostMax, totalDP)

	if b.TotalCostRecent.Valid && effQty.IsPositive() {
		b.CostPerOutputUnit = decimal.NewNullDecimal(
			b.TotalCostRecent.Decimal.Div(effQty).Round(lineCostDP))
	}

	if scaleTo == nil {
		ca.memo[recipeID] = b
	}
	return b, nil
}

func buildIngredientCostLine(line models.IngredientLine, scale decimal.Decimal) IngredientCostLine {
	ing := line.Ingredient
	stdUnit := units.Unit(ing.StandardUnit)

	lineUnit := stdUnit
	if line.UnitOverride != nil && *line.UnitOverride != "" {
		lineUnit = units.Unit(*line.UnitOverride)
	}

	qty := line.Quantity.Mul(scale)
	stdQty, converted := units.Convert(qty, lineUnit, stdUnit)

	rp := ResolveEffectivePrice(ing.Prices, ing.ManualPrice, ing.IsFree, line.YieldPercent)

	return IngredientCostLine{
		LineID:           line.ID,
		IngredientID:     ing.ID,
		IngredientName:   ing.Name,
		Quantity:         qty,
		Unit:             lineUnit,
		StandardQuantity: stdQty,
		StandardUnit:     stdUnit,
		UnitIncompatible: !converted,
		YieldPercent:     line.YieldPercent,
		UnitPriceRecent:  rp.Recent,
		UnitPriceMin:     rp.Min,
		UnitPriceMax:     rp.Max,
		CostRecent:       mulNull(stdQty, rp.Recent),
		CostMin:          mulNull(stdQty, rp.Min),
		CostMax:          mulNull(stdQty, rp.Max),
		HasNoPrice:       rp.HasNoPrice,
		IsManualPrice:    rp.IsManualPrice,
		Note:             line.Note,
	}
}

func (ca *calculator) buildSubRecipeCostLine(line models.SubRecipeLine, scale decimal.Decimal) (SubRecipeCostLine, error) {
	// Alt reçete her zaman önce kendi doğal maliyetiyle hesaplanır
	child, err := ca.compute(line.ChildRecipeID, nil)
	if err != nil {
		return SubRecipeCostLine{}, err
	}

	lineUnit := child.OutputUnit
	if line.UnitOverride != nil && *line.UnitOverride != "" {
		lineUnit = units.Unit(*line.UnitOverride)
	}

	needed := line.PortionsNeeded.Mul(scale)
	convNeeded, _ := units.Convert(needed, lineUnit, child.OutputUnit)

	ratio := decimal.Zero
	if child.OutputQuantity.IsPositive() {
		ratio = convNeeded.Div(child.OutputQuantity)
	}

	return SubRecipeCostLine{
		LineID:            line.ID,
		ChildRecipeID:     line.ChildRecipeID,
		ChildName:         child.Name,
		PortionsNeeded:    needed,
		Unit:              lineUnit,
		ContributionRatio: ratio,
		CostRecent:        scaleNull(child.TotalCostRecent, ratio, lineCostDP),
		CostMin:           scaleNull(child.TotalCostMin, ratio, lineCostDP),
		CostMax:           scaleNull(child.TotalCostMax, ratio, lineCostDP),
		Breakdown:         scaledCopy(child, ratio),
		Note:              line.Note,
	}, nil
}

// scaledCopy: memo'daki doğal sonuç paylaşıldığı için gömülü döküm her
// referans yolunda taze bir kopya olarak oranla ölçeklenir; kaynak değişmez.
func scaledCopy(src *CostBreakdown, ratio decimal.Decimal) *CostBreakdown {
	dst := *src
	dst.ScaleFactor = src.ScaleFactor.Mul(ratio)
	dst.EffectiveOutputQuantity = src.OutputQuantity.Mul(ratio)

	dst.Ingredients = make([]IngredientCostLine, len(src.Ingredients))
	for i, l := range src.Ingredients {
		l.Quantity = l.Quantity.Mul(ratio)
		l.StandardQuantity = l.StandardQuantity.Mul(ratio)
		l.CostRecent = scaleNull(l.CostRecent, ratio, lineCostDP)
		l.CostMin = scaleNull(l.CostMin, ratio, lineCostDP)
		l.CostMax = scaleNull(l.CostMax, ratio, lineCostDP)
		dst.Ingredients[i] = l
	}

	dst.SubRecipes = make([]SubRecipeCostLine, len(src.SubRecipes))
	for i, l := range src.SubRecipes {
		l.PortionsNeeded = l.PortionsNeeded.Mul(ratio)
		l.CostRecent = scaleNull(l.CostRecent, ratio, lineCostDP)
		l.CostMin = scaleNull(l.CostMin, ratio, lineCostDP)
		l.CostMax = scaleNull(l.CostMax, ratio, lineCostDP)
		if l.Breakdown != nil {
			l.Breakdown = scaledCopy(l.Breakdown, ratio)
		}
		dst.SubRecipes[i] = l
	}

	dst.TotalCostRecent = scaleNull(src.TotalCostRecent, ratio, totalDP)
	dst.TotalCostMin = scaleNull(src.TotalCostMin, ratio, totalDP)
	dst.TotalCostMax = scaleNull(src.TotalCostMax, ratio, totalDP)
	// Birim başına maliyet orandan etkilenmez
	return &dst
}

// AttachGPSuggestions - Menü ürünleri için hedef brüt kâr yüzdelerine göre
// önerilen satış fiyatları. KDV çarpanı en sonda bir kez uygulanır,
// malzeme başına değil.
func AttachGPSuggestions(b *CostBreakdown, vatMultiplier decimal.Decimal) {
	if b == nil || !b.Kind.SuggestsGrossProfit() || !b.CostPerOutputUnit.Valid {
		return
	}
	hundred := decimal.NewFromInt(100)
	for _, target := range gpTargets {
		margin := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(target)).Div(hundred))
		price := b.CostPerOutputUnit.Decimal.Div(margin).Mul(vatMultiplier).Round(totalDP)
		b.GPSuggestions = append(b.GPSuggestions, GPSuggestion{
			TargetGPPercent: target,
			SuggestedPrice:  price,
		})
	}
}

// Null güvenli aritmetik: null fiyat null maliyet üretir, hesaplamayı durdurmaz.

func addNull(sum, v decimal.NullDecimal) decimal.NullDecimal {
	if !v.Valid {
		return sum
	}
	if !sum.Valid {
		return decimal.NewNullDecimal(v.Decimal)
	}
	return decimal.NewNullDecimal(sum.Decimal.Add(v.Decimal))
}

func mulNull(qty decimal.Decimal, price decimal.NullDecimal) decimal.NullDecimal {
	if !price.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(qty.Mul(price.Decimal).Round(lineCostDP))
}

func scaleNull(v decimal.NullDecimal, ratio decimal.Decimal, dp int32) decimal.NullDecimal {
	if !v.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v.Decimal.Mul(ratio).Round(dp))
}

func roundNull(v decimal.NullDecimal, dp int32) decimal.NullDecimal {
	if !v.Valid {
		return v
	}
	return decimal.NewNullDecimal(v.Decimal.Round(dp))
}
