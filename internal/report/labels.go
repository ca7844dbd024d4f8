package report

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

// Labels holds the human readable strings of one report language.
type Labels struct {
	Tag language.Tag

	Date         string
	Product      string
	Mode         string
	PackageColor string
	PackageSize  string
	Grams        string
	Quantity     string
	UnitPrice    string
	Total        string
	Stock        string

	Modes  map[enums.SaleMode]string
	Colors map[enums.PackageColor]string
	Sizes  map[enums.PackageSize]string
}

// Header returns the column titles in export order.
func (l Labels) Header() []string {
	return []string{
		l.Date,
		l.Product,
		l.Mode,
		l.PackageColor,
		l.PackageSize,
		l.Grams,
		l.Quantity,
		l.UnitPrice,
		l.Total,
		l.Stock,
	}
}

var english = Labels{
	Tag:          language.English,
	Date:         "Date",
	Product:      "Product",
	Mode:         "Sale mode",
	PackageColor: "Package color",
	PackageSize:  "Package size",
	Grams:        "Grams",
	Quantity:     "Quantity",
	UnitPrice:    "Unit price",
	Total:        "Total",
	Stock:        "Stock",
	Modes: map[enums.SaleMode]string{
		enums.SaleModePackage: "Package",
		enums.SaleModeGrams:   "Grams",
	},
	Colors: map[enums.PackageColor]string{
		enums.PackageColorRed:    "Red",
		enums.PackageColorGreen:  "Green",
		enums.PackageColorYellow: "Yellow",
	},
	Sizes: map[enums.PackageSize]string{
		enums.PackageSizeLarge: "Large",
		enums.PackageSizeSmall: "Small",
	},
}

var russian = Labels{
	Tag:          language.Russian,
	Date:         "Дата",
	Product:      "Товар",
	Mode:         "Тип продажи",
	PackageColor: "Цвет упаковки",
	PackageSize:  "Размер упаковки",
	Grams:        "Граммы",
	Quantity:     "Количество",
	UnitPrice:    "Цена за единицу",
	Total:        "Общая сумма",
	Stock:        "Остаток",
	Modes: map[enums.SaleMode]string{
		enums.SaleModePackage: "Упаковка",
		enums.SaleModeGrams:   "Граммовка",
	},
	Colors: map[enums.PackageColor]string{
		enums.PackageColorRed:    "Красный",
		enums.PackageColorGreen:  "Зеленый",
		enums.PackageColorYellow: "Желтый",
	},
	Sizes: map[enums.PackageSize]string{
		enums.PackageSizeLarge: "Большой",
		enums.PackageSizeSmall: "Маленький",
	},
}

// supported is ordered by preference; the first entry is the fallback.
var supported = []Labels{english, russian}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(supported))
	for _, l := range supported {
		tags = append(tags, l.Tag)
	}
	return language.NewMatcher(tags)
}()

// LabelsFor picks the best supported language for the given candidates.
// Each candidate may be a single tag or an Accept-Language value; the first
// one with a confident match wins and English is used otherwise.
func LabelsFor(candidates ...string) Labels {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(candidate)
		if err != nil || len(tags) == 0 {
			continue
		}
		if _, index, confidence := matcher.Match(tags...); confidence != language.No {
			return supported[index]
		}
	}
	return supported[0]
}
