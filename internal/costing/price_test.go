package costing

import (
	"testing"
	"time"

	"recete-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveEffectivePriceNoData(t *testing.T) {
	rp := ResolveEffectivePrice(nil, nil, false, dec("100"))
	assert.True(t, rp.HasNoPrice)
	assert.False(t, rp.IsManualPrice)
	assert.False(t, rp.Recent.Valid)
	assert.False(t, rp.Min.Valid)
	assert.False(t, rp.Max.Valid)
}

func TestResolveEffectivePriceManualFallback(t *testing.T) {
	rp := ResolveEffectivePrice(nil, decPtr("3.50"), false, dec("100"))
	assert.False(t, rp.HasNoPrice)
	assert.True(t, rp.IsManualPrice)
	require.True(t, rp.Recent.Valid)
	assert.Equal(t, "3.50", rp.Recent.Decimal.StringFixed(2))
	assert.Equal(t, "3.50", rp.Min.Decimal.StringFixed(2))
	assert.Equal(t, "3.50", rp.Max.Decimal.StringFixed(2))
}

func TestResolveEffectivePriceIsFree(t *testing.T) {
	// is_free hem fiyat verisi hem manuel fiyat olsa da her şeyi sıfıra çeker
	prices := []models.IngredientPrice{
		{ID: 1, PricePerUnit: dec("2.00"), ObservedDate: day(2025, 3, 1)},
	}
	rp := ResolveEffectivePrice(prices, decPtr("5.00"), true, dec("100"))
	assert.False(t, rp.HasNoPrice)
	assert.False(t, rp.IsManualPrice)
	require.True(t, rp.Recent.Valid)
	assert.True(t, rp.Recent.Decimal.IsZero())
	assert.True(t, rp.Min.Decimal.IsZero())
	assert.True(t, rp.Max.Decimal.IsZero())
}

func TestResolveEffectivePriceRecentMinMax(t *testing.T) {
	prices := []models.IngredientPrice{
		{ID: 1, PricePerUnit: dec("2.00"), ObservedDate: day(2025, 1, 10)},
		{ID: 2, PricePerUnit: dec("1.50"), ObservedDate: day(2025, 2, 1)},
		{ID: 3, PricePerUnit: dec("2.40"), ObservedDate: day(2025, 1, 20)},
	}
	rp := ResolveEffectivePrice(prices, nil, false, dec("100"))
	require.True(t, rp.Recent.Valid)
	assert.Equal(t, "1.50", rp.Recent.Decimal.StringFixed(2), "en güncel gözlem kazanmalı")
	assert.Equal(t, "1.50", rp.Min.Decimal.StringFixed(2))
	assert.Equal(t, "2.40", rp.Max.Decimal.StringFixed(2))

	// Manuel fiyat, tedarikçi kaydı varken min/max'a karışmaz
	rp = ResolveEffectivePrice(prices, decPtr("9.99"), false, dec("100"))
	assert.Equal(t, "1.50", rp.Recent.Decimal.StringFixed(2))
	assert.False(t, rp.IsManualPrice)
}

func TestResolveEffectivePriceDateTie(t *testing.T) {
	// Tarih eşitse en son eklenen (büyük ID) kazanır
	prices := []models.IngredientPrice{
		{ID: 10, PricePerUnit: dec("2.00"), ObservedDate: day(2025, 3, 1)},
		{ID: 11, PricePerUnit: dec("2.20"), ObservedDate: day(2025, 3, 1)},
	}
	rp := ResolveEffectivePrice(prices, nil, false, dec("100"))
	require.True(t, rp.Recent.Valid)
	assert.Equal(t, "2.20", rp.Recent.Decimal.StringFixed(2))
}

func TestResolveEffectivePriceYieldAdjustment(t *testing.T) {
	// %50 fire: kullanılabilir birim başına etkin maliyet ikiye katlanır
	prices := []models.IngredientPrice{
		{ID: 1, PricePerUnit: dec("2.00"), ObservedDate: day(2025, 3, 1)},
	}
	rp := ResolveEffectivePrice(prices, nil, false, dec("50"))
	require.True(t, rp.Recent.Valid)
	assert.Equal(t, "4.00", rp.Recent.Decimal.StringFixed(2))

	// %80 verim
	rp = ResolveEffectivePrice(prices, nil, false, dec("80"))
	assert.Equal(t, "2.50", rp.Recent.Decimal.StringFixed(2))

	// Manuel fiyat da fire düzeltmesinden geçer
	rp = ResolveEffectivePrice(nil, decPtr("1.00"), false, dec("50"))
	assert.Equal(t, "2.00", rp.Recent.Decimal.StringFixed(2))
}
