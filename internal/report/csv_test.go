package report

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/herb-sales-ledger/internal/sales"
	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

const englishHeader = "Date,Product,Sale mode,Package color,Package size,Grams,Quantity,Unit price,Total,Stock"

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func sampleSales() []sales.SaleWithProduct {
	stock := dec("42")
	perGram := dec("80")
	return []sales.SaleWithProduct{
		{
			Sale: sales.Sale{
				ID:          "sale-2",
				Date:        "2024-01-02",
				ProductID:   "herb-1",
				Variant:     sales.GramsVariant{Grams: dec("2.5")},
				Quantity:    dec("2.5"),
				UnitPrice:   dec("80"),
				TotalAmount: dec("200"),
			},
			Product: sales.Product{
				ID:           "herb-1",
				Name:         "Purple Haze",
				Category:     enums.ProductCategoryHerb,
				Price:        dec("1200"),
				PricePerGram: &perGram,
				Stock:        &stock,
			},
		},
		{
			Sale: sales.Sale{
				ID:          "sale-1",
				Date:        "2024-01-01",
				ProductID:   "product-7",
				Variant:     sales.PackageVariant{Color: enums.PackageColorRed, Size: enums.PackageSizeLarge},
				Quantity:    dec("3"),
				UnitPrice:   dec("150"),
				TotalAmount: dec("450"),
			},
			Product: sales.Product{
				ID:       "product-7",
				Name:     "Papers, king size",
				Category: enums.ProductCategoryOther,
				Price:    dec("150"),
			},
		},
	}
}

func TestToCSVZeroSalesIsHeaderOnly(t *testing.T) {
	out, err := NewFormatter(ModePlain, Labels{}).ToCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, englishHeader, out)
}

func TestToCSVPlainKeepsLedgerOrderWithoutQuoting(t *testing.T) {
	out, err := NewFormatter(ModePlain, LabelsFor("en")).ToCSV(sampleSales())
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, englishHeader, lines[0])
	assert.Equal(t, "2024-01-02,Purple Haze,Grams,,,2.5,2.5,80,200,42", lines[1])
	assert.Equal(t, "2024-01-01,Papers, king size,Package,Red,Large,,3,150,450,", lines[2])
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestToCSVQuotedEscapesCommas(t *testing.T) {
	out, err := NewFormatter(ModeQuoted, LabelsFor("en")).ToCSV(sampleSales())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, strings.Split(englishHeader, ","), records[0])
	assert.Equal(t, "Papers, king size", records[2][1])
	assert.Len(t, records[2], 10)
	assert.Contains(t, out, `"Papers, king size"`)
}

func TestToCSVQuotedZeroSales(t *testing.T) {
	out, err := NewFormatter(ModeQuoted, LabelsFor("en")).ToCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, englishHeader+"\n", out)
}

func TestToCSVRussianLabels(t *testing.T) {
	out, err := NewFormatter(ModePlain, LabelsFor("ru-RU")).ToCSV(sampleSales()[1:])
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Дата,Товар,"))
	assert.Contains(t, lines[1], ",Упаковка,Красный,Большой,")
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeQuoted, ParseMode(" Quoted "))
	assert.Equal(t, ModePlain, ParseMode("plain"))
	assert.Equal(t, ModePlain, ParseMode(""))
	assert.Equal(t, ModePlain, ParseMode("tsv"))
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, time.February, 29, 23, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))
	assert.Equal(t, "sales-report-2024-03-01.csv", FileName(now))
}
