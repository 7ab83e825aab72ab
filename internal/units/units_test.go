package units

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSameUnit(t *testing.T) {
	v := decimal.NewFromFloat(42.5)
	got, ok := Convert(v, Gram, Gram)
	assert.True(t, ok)
	assert.True(t, got.Equal(v))
}

func TestConvertWithinFamily(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		from, to Unit
		want     string
	}{
		{"g to kg", "5000", Gram, Kilogram, "5"},
		{"kg to g", "2.5", Kilogram, Gram, "2500"},
		{"ml to ltr", "1500", Milliliter, Liter, "1.5"},
		{"ltr to ml", "0.75", Liter, Milliliter, "750"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := decimal.NewFromString(tc.value)
			require.NoError(t, err)
			got, ok := Convert(v, tc.from, tc.to)
			assert.True(t, ok)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	v := decimal.NewFromFloat(123.456)
	kg, ok := Convert(v, Gram, Kilogram)
	require.True(t, ok)
	back, ok := Convert(kg, Kilogram, Gram)
	require.True(t, ok)
	assert.True(t, back.Equal(v), "g -> kg -> g değeri değiştirmemeli")
}

func TestConvertIncompatibleFamilies(t *testing.T) {
	// Aileler arası çevirme yapılmaz: değer DEĞİŞMEDEN döner, ok=false
	v := decimal.NewFromInt(100)

	got, ok := Convert(v, Gram, Milliliter)
	assert.False(t, ok)
	assert.True(t, got.Equal(v))

	got, ok = Convert(v, Kilogram, Each)
	assert.False(t, ok)
	assert.True(t, got.Equal(v))

	// each ve portion ayrı ailelerdir
	got, ok = Convert(v, Each, Portion)
	assert.False(t, ok)
	assert.True(t, got.Equal(v))
}

func TestCompatibleUnits(t *testing.T) {
	assert.Equal(t, []Unit{Gram, Kilogram}, CompatibleUnits(Gram))
	assert.Equal(t, []Unit{Milliliter, Liter}, CompatibleUnits(Liter))
	assert.Equal(t, []Unit{Each}, CompatibleUnits(Each))
	assert.Equal(t, []Unit{Portion}, CompatibleUnits(Portion))
	assert.Nil(t, CompatibleUnits(Unit("koli")))
}

func TestIsValid(t *testing.T) {
	for _, u := range []Unit{Gram, Kilogram, Milliliter, Liter, Each, Portion} {
		assert.True(t, IsValid(u))
	}
	assert.False(t, IsValid(Unit("adet")))
	assert.False(t, IsValid(Unit("")))
}
