package sales

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

func inRange(d decimal.Decimal, lo, hi int64) bool {
	return d.GreaterThanOrEqual(decimal.NewFromInt(lo)) && d.LessThan(decimal.NewFromInt(hi))
}

func TestGenerateProductsShape(t *testing.T) {
	products := GenerateProducts(rand.New(rand.NewPCG(1, 2)))
	require.Len(t, products, 105)

	herbs := 0
	seen := map[string]struct{}{}
	for _, p := range products {
		_, dup := seen[p.ID]
		require.Falsef(t, dup, "duplicate id %s", p.ID)
		seen[p.ID] = struct{}{}

		require.NotNil(t, p.Stock)
		assert.True(t, inRange(*p.Stock, 50, 150), p.ID)

		switch p.Category {
		case enums.ProductCategoryHerb:
			herbs++
			require.NotNil(t, p.PricePerGram)
			assert.True(t, inRange(p.Price, 1000, 5000), p.ID)
			assert.True(t, inRange(*p.PricePerGram, 50, 500), p.ID)
		case enums.ProductCategoryOther:
			assert.Nil(t, p.PricePerGram)
			assert.True(t, inRange(p.Price, 500, 3000), p.ID)
		default:
			t.Fatalf("unexpected category %q", p.Category)
		}
	}
	assert.Equal(t, 18, herbs)
	assert.Equal(t, "herb-1", products[0].ID)
	assert.Equal(t, "Purple Haze", products[0].Name)
	assert.Equal(t, "product-105", products[104].ID)
}

func TestGenerateSalesShape(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	products := GenerateProducts(rng)
	now := time.Date(2024, time.March, 31, 10, 0, 0, 0, time.UTC)
	earliest := now.AddDate(0, 0, -29).Format(DateLayout)

	byID := map[string]Product{}
	for _, p := range products {
		byID[p.ID] = p
	}

	sales := GenerateSales(products, rng, now)
	require.Len(t, sales, 50)
	for i, s := range sales {
		product, ok := byID[s.ProductID]
		require.True(t, ok)
		assert.True(t, inRange(s.Quantity, 1, 11))
		assert.GreaterOrEqual(t, s.Date, earliest)
		assert.LessOrEqual(t, s.Date, now.Format(DateLayout))
		assert.True(t, s.TotalAmount.Equal(s.Quantity.Mul(s.UnitPrice)))
		if i > 0 {
			assert.GreaterOrEqual(t, sales[i-1].Date, s.Date, "sorted newest date first")
		}

		switch v := s.Variant.(type) {
		case GramsVariant:
			assert.Equal(t, enums.ProductCategoryHerb, product.Category)
			assert.True(t, v.Grams.Equal(s.Quantity))
			assert.True(t, s.UnitPrice.Equal(*product.PricePerGram))
		case PackageVariant:
			assert.True(t, v.Color.IsValid())
			assert.True(t, v.Size.IsValid())
			assert.True(t, s.UnitPrice.Equal(product.Price))
		default:
			t.Fatalf("sale %d has no variant", i)
		}
	}
}

func TestGenerateSalesWithoutProducts(t *testing.T) {
	assert.Empty(t, GenerateSales(nil, rand.New(rand.NewPCG(1, 1)), time.Now()))
}
