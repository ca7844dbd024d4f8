package sales

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

const (
	demoCatalogSize = 105
	demoSaleCount   = 50
	demoSaleDays    = 30
)

var herbNames = []string{
	"Purple Haze", "Green Dream", "Sunset Bliss", "Ocean Breeze",
	"Mountain Mist", "Forest Dew", "Valley Calm", "Desert Rose",
	"Spring Fresh", "Summer Joy", "Autumn Gold", "Winter Frost",
	"Morning Glory", "Evening Peace", "Midnight Magic", "Dawn Delight",
	"Twilight Serenity", "Moonlight Dreams",
}

// between returns an integer in [lo, hi).
func between(rng *rand.Rand, lo, hi int) decimal.Decimal {
	return decimal.NewFromInt(int64(lo + rng.IntN(hi-lo)))
}

// GenerateProducts builds the demo catalog: every named herb followed by
// generic products up to a fixed catalog size.
func GenerateProducts(rng *rand.Rand) []Product {
	products := make([]Product, 0, demoCatalogSize)
	for i, name := range herbNames {
		perGram := between(rng, 50, 500)
		stock := between(rng, 50, 150)
		products = append(products, Product{
			ID:           fmt.Sprintf("herb-%d", i+1),
			Name:         name,
			Category:     enums.ProductCategoryHerb,
			Price:        between(rng, 1000, 5000),
			PricePerGram: &perGram,
			Stock:        &stock,
		})
	}
	for i := len(herbNames); i < demoCatalogSize; i++ {
		stock := between(rng, 50, 150)
		products = append(products, Product{
			ID:       fmt.Sprintf("product-%d", i+1),
			Name:     fmt.Sprintf("Product %d", i+1),
			Category: enums.ProductCategoryOther,
			Price:    between(rng, 500, 3000),
			Stock:    &stock,
		})
	}
	return products
}

// GenerateSales synthesizes demo sales over the last days before now, sorted
// by date descending. Herbs are sold by package or by weight at random.
func GenerateSales(products []Product, rng *rand.Rand, now time.Time) []Sale {
	if len(products) == 0 {
		return nil
	}
	sales := make([]Sale, 0, demoSaleCount)
	for i := 0; i < demoSaleCount; i++ {
		product := products[rng.IntN(len(products))]
		quantity := between(rng, 1, 11)
		date := now.AddDate(0, 0, -rng.IntN(demoSaleDays)).Format(DateLayout)

		var (
			variant   Variant
			unitPrice = product.Price
		)
		if product.SellsByWeight() && rng.IntN(2) == 0 {
			variant = GramsVariant{Grams: quantity}
			unitPrice = *product.PricePerGram
		} else {
			variant = PackageVariant{
				Color: enums.PackageColors[rng.IntN(len(enums.PackageColors))],
				Size:  enums.PackageSizes[rng.IntN(len(enums.PackageSizes))],
			}
		}

		sales = append(sales, Sale{
			Date:        date,
			ProductID:   product.ID,
			Variant:     variant,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			TotalAmount: computeTotal(quantity, unitPrice),
		})
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].Date > sales[j].Date
	})
	return sales
}
