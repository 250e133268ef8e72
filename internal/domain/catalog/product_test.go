package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnits(t *testing.T, tenantID uuid.UUID) (*UnitOfMeasure, *UnitOfMeasure) {
	t.Helper()
	unit, err := NewUnitOfMeasure(tenantID, "Units", "Unit", decimal.NewFromInt(1))
	require.NoError(t, err)
	unit.Rounding = decimal.NewFromInt(1)
	dozen, err := NewUnitOfMeasure(tenantID, "Dozens", "Unit", decimal.NewFromInt(12))
	require.NoError(t, err)
	return unit, dozen
}

func TestUnitOfMeasure_ComputeQuantity(t *testing.T) {
	tenantID := uuid.New()
	unit, dozen := newUnits(t, tenantID)

	t.Run("bigger to reference", func(t *testing.T) {
		q, err := dozen.ComputeQuantity(decimal.NewFromInt(2), unit, false)
		require.NoError(t, err)
		assert.True(t, q.Equal(decimal.NewFromInt(24)), q.String())
	})

	t.Run("reference to bigger rounds up", func(t *testing.T) {
		q, err := unit.ComputeQuantity(decimal.NewFromInt(25), dozen, true)
		require.NoError(t, err)
		assert.Equal(t, "2.09", q.StringFixed(2))
	})

	t.Run("reference to bigger half up", func(t *testing.T) {
		q, err := unit.ComputeQuantity(decimal.NewFromInt(25), dozen, false)
		require.NoError(t, err)
		assert.Equal(t, "2.08", q.StringFixed(2))
	})

	t.Run("same unit is identity", func(t *testing.T) {
		q, err := unit.ComputeQuantity(decimal.RequireFromString("3.5"), unit, true)
		require.NoError(t, err)
		assert.Equal(t, "3.5", q.String())
	})

	t.Run("category mismatch", func(t *testing.T) {
		kg, err := NewUnitOfMeasure(tenantID, "kg", "Weight", decimal.NewFromInt(1))
		require.NoError(t, err)
		_, err = unit.ComputeQuantity(decimal.NewFromInt(1), kg, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same category")
	})

	t.Run("price conversion", func(t *testing.T) {
		p := unit.ComputePrice(decimal.NewFromInt(2), dozen)
		assert.True(t, p.Equal(decimal.NewFromInt(24)))
	})
}

func TestProduct_SelectSeller(t *testing.T) {
	tenantID := uuid.New()
	unit, dozen := newUnits(t, tenantID)
	p, err := NewProduct(tenantID, "CBL-01", "Cable", uuid.New(), unit)
	require.NoError(t, err)
	require.NoError(t, p.SetPurchaseUom(dozen))

	vendorA := uuid.New()
	vendorB := uuid.New()
	_, err = p.AddSeller(vendorA, "Vendor A", decimal.NewFromInt(30), decimal.NewFromInt(1), 3)
	require.NoError(t, err)
	_, err = p.AddSeller(vendorA, "Vendor A", decimal.NewFromInt(25), decimal.NewFromInt(10), 5)
	require.NoError(t, err)
	_, err = p.AddSeller(vendorB, "Vendor B", decimal.NewFromInt(20), decimal.Zero, 2)
	require.NoError(t, err)

	t.Run("first vendor by sequence, quantity in purchase uom", func(t *testing.T) {
		s := p.SelectSeller(SellerQuery{Quantity: decimal.NewFromInt(24)})
		require.NotNil(t, s)
		assert.Equal(t, vendorA, s.PartnerID)
		assert.True(t, s.Price.Equal(decimal.NewFromInt(30)))
	})

	t.Run("cheapest entry of the vendor once min qty met", func(t *testing.T) {
		s := p.SelectSeller(SellerQuery{Quantity: decimal.NewFromInt(120)})
		require.NotNil(t, s)
		assert.True(t, s.Price.Equal(decimal.NewFromInt(25)))
		assert.Equal(t, 5, s.Delay)
	})

	t.Run("restricted to partner", func(t *testing.T) {
		s := p.SelectSeller(SellerQuery{PartnerID: &vendorB, Quantity: decimal.NewFromInt(1)})
		require.NotNil(t, s)
		assert.Equal(t, vendorB, s.PartnerID)
	})

	t.Run("skips expired entries", func(t *testing.T) {
		past := time.Now().AddDate(0, 0, -10)
		for i := range p.Sellers {
			if p.Sellers[i].PartnerID == vendorA {
				p.Sellers[i].DateEnd = &past
			}
		}
		s := p.SelectSeller(SellerQuery{Quantity: decimal.NewFromInt(24)})
		require.NotNil(t, s)
		assert.Equal(t, vendorB, s.PartnerID)
	})

	t.Run("no seller", func(t *testing.T) {
		unknown := uuid.New()
		assert.Nil(t, p.SelectSeller(SellerQuery{PartnerID: &unknown, Quantity: decimal.NewFromInt(1)}))
	})

	assert.ElementsMatch(t, []uuid.UUID{vendorA, vendorB}, p.VendorIDs())
}

func TestProduct_DisplayName(t *testing.T) {
	tenantID := uuid.New()
	unit, _ := newUnits(t, tenantID)
	p, err := NewProduct(tenantID, "PH-1", "Phone", uuid.New(), unit)
	require.NoError(t, err)

	assert.Equal(t, "[PH-1] Phone", p.DisplayName())
	assert.Equal(t, "[PH-1] Phone", p.PurchaseLineName())

	p.AttributeValues = []ProductAttributeValue{
		{ID: uuid.New(), Name: "128GB", Sequence: 20},
		{ID: uuid.New(), Name: "Black", Sequence: 10},
	}
	p.DescriptionPurchase = "Boxed"
	assert.Equal(t, "[PH-1] Phone (Black, 128GB)", p.DisplayName())
	assert.Equal(t, "[PH-1] Phone (Black, 128GB)\nBoxed", p.PurchaseLineName())
}

func TestProductAttribute(t *testing.T) {
	a, err := NewProductAttribute(uuid.New(), "Color", "case")
	require.NoError(t, err)
	assert.Equal(t, "Color [case]", a.DisplayName())

	a.Comment = ""
	assert.Equal(t, "Color", a.DisplayName())

	_, err = a.AddValue("Red")
	require.NoError(t, err)
	_, err = a.AddValue("red")
	assert.Error(t, err)
	assert.Len(t, a.Values, 1)
}

func TestComputeAll(t *testing.T) {
	tenantID := uuid.New()
	excluded, err := NewTax(tenantID, "VAT 13%", decimal.NewFromInt(13), false, TaxUseSale)
	require.NoError(t, err)
	included, err := NewTax(tenantID, "VAT 13% incl", decimal.NewFromInt(13), true, TaxUseSale)
	require.NoError(t, err)

	t.Run("price excluded", func(t *testing.T) {
		r := ComputeAll(decimal.NewFromInt(100), decimal.NewFromInt(2), []Tax{*excluded})
		assert.Equal(t, "200.00", r.Untaxed.StringFixed(2))
		assert.Equal(t, "26.00", r.Tax.StringFixed(2))
		assert.Equal(t, "226.00", r.Total.StringFixed(2))
	})

	t.Run("price included keeps the entered total", func(t *testing.T) {
		r := ComputeAll(decimal.NewFromInt(113), decimal.NewFromInt(1), []Tax{*included})
		assert.Equal(t, "100.00", r.Untaxed.StringFixed(2))
		assert.Equal(t, "13.00", r.Tax.StringFixed(2))
		assert.Equal(t, "113.00", r.Total.StringFixed(2))

		r = ComputeAll(decimal.NewFromInt(10), decimal.NewFromInt(3), []Tax{*included})
		assert.Equal(t, "30.00", r.Total.StringFixed(2))
		assert.Equal(t, "26.55", r.Untaxed.StringFixed(2))
	})

	t.Run("no taxes", func(t *testing.T) {
		r := ComputeAll(decimal.NewFromInt(5), decimal.NewFromInt(3), nil)
		assert.True(t, r.Tax.IsZero())
		assert.Equal(t, "15.00", r.Total.StringFixed(2))
		assert.True(t, PriceIncludingTax(decimal.NewFromInt(5), nil).Equal(decimal.NewFromInt(5)))
	})

	t.Run("invalid tax", func(t *testing.T) {
		_, err := NewTax(tenantID, "bad", decimal.NewFromInt(120), false, TaxUseSale)
		assert.Error(t, err)
	})
}
