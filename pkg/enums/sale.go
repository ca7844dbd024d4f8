package enums

import "fmt"

// SaleMode tells whether a sale is denominated in packages or in grams.
type SaleMode string

const (
	SaleModePackage SaleMode = "package"
	SaleModeGrams   SaleMode = "grams"
)

var validSaleModes = []SaleMode{SaleModePackage, SaleModeGrams}

// String implements fmt.Stringer.
func (m SaleMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known SaleMode.
func (m SaleMode) IsValid() bool {
	for _, candidate := range validSaleModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseSaleMode converts raw input into a SaleMode.
func ParseSaleMode(value string) (SaleMode, error) {
	for _, candidate := range validSaleModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale mode %q", value)
}

// PackageColor is the color of a sold package.
type PackageColor string

const (
	PackageColorRed    PackageColor = "red"
	PackageColorGreen  PackageColor = "green"
	PackageColorYellow PackageColor = "yellow"
)

// PackageColors lists every color in display order.
var PackageColors = []PackageColor{PackageColorRed, PackageColorGreen, PackageColorYellow}

// String implements fmt.Stringer.
func (c PackageColor) String() string {
	return string(c)
}

// IsValid reports whether the value is a known PackageColor.
func (c PackageColor) IsValid() bool {
	for _, candidate := range PackageColors {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParsePackageColor converts raw input into a PackageColor.
func ParsePackageColor(value string) (PackageColor, error) {
	for _, candidate := range PackageColors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid package color %q", value)
}

// PackageSize is the size of a sold package.
type PackageSize string

const (
	PackageSizeLarge PackageSize = "large"
	PackageSizeSmall PackageSize = "small"
)

// PackageSizes lists every size in display order.
var PackageSizes = []PackageSize{PackageSizeLarge, PackageSizeSmall}

// String implements fmt.Stringer.
func (s PackageSize) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PackageSize.
func (s PackageSize) IsValid() bool {
	for _, candidate := range PackageSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePackageSize converts raw input into a PackageSize.
func ParsePackageSize(value string) (PackageSize, error) {
	for _, candidate := range PackageSizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid package size %q", value)
}
