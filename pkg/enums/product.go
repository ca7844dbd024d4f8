package enums

import "fmt"

// ProductCategory represents the catalog categories the ledger knows about.
type ProductCategory string

const (
	ProductCategoryHerb  ProductCategory = "herb"
	ProductCategoryOther ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryHerb,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// SellsByWeight reports whether products of this category may be sold in grams.
func (c ProductCategory) SellsByWeight() bool {
	return c == ProductCategoryHerb
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
