package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

// Product is a catalog entry sales are recorded against.
type Product struct {
	ID           string                `gorm:"column:id;primaryKey"`
	Name         string                `gorm:"column:name;not null"`
	Category     enums.ProductCategory `gorm:"column:category;not null"`
	Price        decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	PricePerGram decimal.NullDecimal   `gorm:"column:price_per_gram;type:numeric(12,2)"`
	Stock        decimal.NullDecimal   `gorm:"column:stock;type:numeric(12,2)"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
