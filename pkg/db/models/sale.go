package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

// Sale is one recorded transaction. Seq orders rows newest-first independent of SaleDate.
type Sale struct {
	ID           string              `gorm:"column:id;primaryKey"`
	Seq          int64               `gorm:"column:seq;not null;uniqueIndex"`
	SaleDate     string              `gorm:"column:sale_date;not null;index"`
	ProductID    string              `gorm:"column:product_id;not null;index"`
	Mode         enums.SaleMode      `gorm:"column:mode;not null"`
	PackageColor *enums.PackageColor `gorm:"column:package_color"`
	PackageSize  *enums.PackageSize  `gorm:"column:package_size"`
	Grams        decimal.NullDecimal `gorm:"column:grams;type:numeric(12,2)"`
	Quantity     decimal.Decimal     `gorm:"column:quantity;type:numeric(12,2);not null"`
	UnitPrice    decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalAmount  decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Comment      *string             `gorm:"column:comment"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Sale) TableName() string { return "sales" }
