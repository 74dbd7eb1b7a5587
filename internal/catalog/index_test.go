package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []Product {
	return []Product{
		{EAN: "102", Name: "TOMATE  kg", Sector: "HORTI-FRUTI", Category: "LEGUMES", SaleUnit: SaleByKilo, DeliveryEligible: true},
		{EAN: "7891000100", Name: "EXTRATO DE TOMATE 340G", Sector: "MERCEARIA", Category: "ENLATADOS", SaleUnit: SaleByUnit, DeliveryEligible: true},
		{EAN: "7891000101", Name: "MOLHO DE TOMATE 300G", Sector: "MERCEARIA", Category: "ENLATADOS", SaleUnit: SaleByUnit, DeliveryEligible: true},
		{EAN: "7891000200", Name: "ARROZ TIPO 1 5KG", Sector: "MERCEARIA", Category: "GRAOS", SaleUnit: SaleByUnit, DeliveryEligible: true},
		{EAN: "7891000201", Name: "ARROZ INTEGRAL 1KG", Sector: "MERCEARIA", Category: "GRAOS", SaleUnit: SaleByUnit, DeliveryEligible: true},
		{EAN: "301", Name: "FRANGO ABATIDO kg", Sector: "FRIGORIFICO", Category: "AVES", SaleUnit: SaleByKilo, DeliveryEligible: true},
		{EAN: "302", Name: "FRANGO ASSADO PROMOCAO", Sector: "FRIGORIFICO", Category: "AVES", SaleUnit: SaleByUnit, DeliveryEligible: false},
		{EAN: "7891000300", Name: "REFRIG GUARANA ANTARCTICA 2L", Sector: "BEBIDAS", Category: "REFRIGERANTES", SaleUnit: SaleByUnit, DeliveryEligible: true},
		{EAN: "103", Name: "MACA  kg", Sector: "HORTI-FRUTI", Category: "FRUTAS", SaleUnit: SaleByKilo, DeliveryEligible: true},
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	return NewIndex(testCatalog(), nil)
}

func TestIndex_Search(t *testing.T) {
	ix := newTestIndex(t)

	t.Run("Fresh item outranks processed products", func(t *testing.T) {
		res := ix.Search("tomate")
		require.NotEmpty(t, res)
		assert.Equal(t, "102", res[0].EAN)

		// The processed variants still show up, just further down.
		eans := make([]string, 0, len(res))
		for _, p := range res {
			eans = append(eans, p.EAN)
		}
		assert.Contains(t, eans, "7891000100")
		assert.Contains(t, eans, "7891000101")
	})

	t.Run("Accented query matches unaccented catalog", func(t *testing.T) {
		withAccent := ix.Search("maçã")
		stripped := ix.Search("maca")
		require.NotEmpty(t, withAccent)
		assert.Equal(t, stripped, withAccent)
		assert.Equal(t, "103", withAccent[0].EAN)
	})

	t.Run("Prefix match", func(t *testing.T) {
		res := ix.Search("arroz")
		require.GreaterOrEqual(t, len(res), 2)
		for _, p := range res {
			assert.Contains(t, p.normName, "arroz")
		}
	})

	t.Run("Multi token query", func(t *testing.T) {
		res := ix.Search("extrato de tomate")
		require.NotEmpty(t, res)
		assert.Equal(t, "7891000100", res[0].EAN)
	})

	t.Run("Typo within edit distance", func(t *testing.T) {
		res := ix.Search("tomete")
		require.NotEmpty(t, res)
		assert.Equal(t, "102", res[0].EAN)
	})

	t.Run("No match returns empty, not error", func(t *testing.T) {
		res := ix.Search("parafuso sextavado")
		assert.Empty(t, res)
	})

	t.Run("Blank query", func(t *testing.T) {
		assert.Empty(t, ix.Search("   "))
	})
}

func TestIndex_ByEAN(t *testing.T) {
	ix := newTestIndex(t)

	p, ok := ix.ByEAN("7891000200")
	require.True(t, ok)
	assert.Equal(t, "ARROZ TIPO 1 5KG", p.Name)

	_, ok = ix.ByEAN("000")
	assert.False(t, ok)
}

func TestIndex_SectorBoostBreaksTies(t *testing.T) {
	products := []Product{
		{EAN: "1", Name: "FRANGO CONGELADO kg", Sector: "MERCEARIA", SaleUnit: SaleByKilo, DeliveryEligible: true},
		{EAN: "2", Name: "FRANGO ABATIDO kg", Sector: "FRIGORIFICO", SaleUnit: SaleByKilo, DeliveryEligible: true},
	}
	ix := NewIndex(products, nil)

	res := ix.Search("frango")
	require.Len(t, res, 2)
	assert.Equal(t, "2", res[0].EAN, "frigorifico sector should win the tie")
}

func TestProduct_LooseWeight(t *testing.T) {
	assert.True(t, Product{Sector: "HORTI-FRUTI"}.LooseWeight())
	assert.True(t, Product{Sector: "ACOUGUE"}.LooseWeight())
	assert.True(t, Product{Sector: "PADARIA"}.LooseWeight())
	assert.False(t, Product{Sector: "MERCEARIA"}.LooseWeight())
	assert.False(t, Product{Sector: "BEBIDAS"}.LooseWeight())
}
