package sales

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

// DateLayout is the calendar-day format used for sale dates.
const DateLayout = "2006-01-02"

// Product is a catalog entry. PricePerGram is only set for herb products and
// Stock is nil when the product is not stock tracked.
type Product struct {
	ID           string
	Name         string
	Category     enums.ProductCategory
	Price        decimal.Decimal
	PricePerGram *decimal.Decimal
	Stock        *decimal.Decimal
}

// SellsByWeight reports whether the product can be sold in grams.
func (p Product) SellsByWeight() bool {
	return p.Category.SellsByWeight() && p.PricePerGram != nil
}

// Variant is the mode-specific part of a sale. Exactly one implementation is
// attached to every sale, so package and grams fields can never coexist.
type Variant interface {
	Mode() enums.SaleMode
	isVariant()
}

// PackageVariant describes a sale of whole packages.
type PackageVariant struct {
	Color enums.PackageColor
	Size  enums.PackageSize
}

func (PackageVariant) Mode() enums.SaleMode { return enums.SaleModePackage }
func (PackageVariant) isVariant()           {}

// GramsVariant describes a sale by weight.
type GramsVariant struct {
	Grams decimal.Decimal
}

func (GramsVariant) Mode() enums.SaleMode { return enums.SaleModeGrams }
func (GramsVariant) isVariant()           {}

// Sale is one recorded transaction. UnitPrice is a snapshot taken when the sale
// was written and TotalAmount is always Quantity x UnitPrice.
type Sale struct {
	ID          string
	Seq         int64
	Date        string
	ProductID   string
	Variant     Variant
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal
	Comment     *string
}

// Mode returns the sale mode of the attached variant.
func (s Sale) Mode() enums.SaleMode {
	if s.Variant == nil {
		return ""
	}
	return s.Variant.Mode()
}

// Package returns the package variant when the sale is in package mode.
func (s Sale) Package() (PackageVariant, bool) {
	v, ok := s.Variant.(PackageVariant)
	return v, ok
}

// Grams returns the grams variant when the sale is in grams mode.
func (s Sale) Grams() (GramsVariant, bool) {
	v, ok := s.Variant.(GramsVariant)
	return v, ok
}

// SaleWithProduct is a sale joined with the product as it currently stands.
type SaleWithProduct struct {
	Sale
	Product Product
}

// DayGroup collects the sales that share an exact date string.
type DayGroup struct {
	Date       string
	Sales      []SaleWithProduct
	DailyTotal decimal.Decimal
}

// SaleInput carries the mutable fields of a sale for create and update.
// Quantity is ignored in grams mode, where it always equals Grams.
type SaleInput struct {
	Date         string
	ProductID    string
	Mode         enums.SaleMode
	PackageColor *enums.PackageColor
	PackageSize  *enums.PackageSize
	Grams        *decimal.Decimal
	Quantity     decimal.Decimal
	UnitPrice    *decimal.Decimal
	Comment      *string
}

func computeTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}
