package sales

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/herb-sales-ledger/pkg/errors"
)

var minimumAmount = decimal.NewFromInt(1)

func validationError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]string{"field": field})
}

// normalizeDate returns the input date or today's date when blank.
func normalizeDate(raw string, now time.Time) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return now.Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return "", validationError("date", "date must use YYYY-MM-DD")
	}
	return value, nil
}

func resolveVariant(input SaleInput, product Product) (Variant, error) {
	switch input.Mode {
	case enums.SaleModePackage:
		if input.Grams != nil {
			return nil, validationError("grams", "grams is not allowed in package mode")
		}
		if input.PackageColor == nil || !input.PackageColor.IsValid() {
			return nil, validationError("package_color", "package color must be red, green, or yellow")
		}
		if input.PackageSize == nil || !input.PackageSize.IsValid() {
			return nil, validationError("package_size", "package size must be large or small")
		}
		return PackageVariant{Color: *input.PackageColor, Size: *input.PackageSize}, nil
	case enums.SaleModeGrams:
		if input.PackageColor != nil || input.PackageSize != nil {
			return nil, validationError("mode", "package color and size are not allowed in grams mode")
		}
		if !product.Category.SellsByWeight() {
			return nil, validationError("mode", "product cannot be sold in grams")
		}
		if input.Grams == nil || input.Grams.LessThan(minimumAmount) {
			return nil, validationError("grams", "grams must be at least 1")
		}
		return GramsVariant{Grams: *input.Grams}, nil
	default:
		return nil, validationError("mode", "mode must be package or grams")
	}
}

func defaultUnitPrice(variant Variant, product Product) decimal.Decimal {
	if _, ok := variant.(GramsVariant); ok && product.PricePerGram != nil {
		return *product.PricePerGram
	}
	return product.Price
}

// buildSale validates input against the resolved product and returns a sale
// without identity. Quantity and the total are derived here and nowhere else.
func buildSale(input SaleInput, product Product, now time.Time) (Sale, error) {
	date, err := normalizeDate(input.Date, now)
	if err != nil {
		return Sale{}, err
	}

	variant, err := resolveVariant(input, product)
	if err != nil {
		return Sale{}, err
	}

	quantity := input.Quantity
	if grams, ok := variant.(GramsVariant); ok {
		quantity = grams.Grams
	}
	if quantity.LessThan(minimumAmount) {
		return Sale{}, validationError("quantity", "quantity must be at least 1")
	}

	unitPrice := defaultUnitPrice(variant, product)
	if input.UnitPrice != nil {
		unitPrice = *input.UnitPrice
	}
	if unitPrice.LessThan(minimumAmount) {
		return Sale{}, validationError("unit_price", "unit price must be at least 1")
	}

	var comment *string
	if input.Comment != nil {
		if trimmed := strings.TrimSpace(*input.Comment); trimmed != "" {
			comment = &trimmed
		}
	}

	return Sale{
		Date:        date,
		ProductID:   product.ID,
		Variant:     variant,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalAmount: computeTotal(quantity, unitPrice),
		Comment:     comment,
	}, nil
}
