package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/herb-sales-ledger/pkg/db"
	"github.com/angelmondragon/herb-sales-ledger/pkg/db/models"
	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

// Repository is the SQL-backed Store.
type Repository struct {
	client *db.Client
	db     *gorm.DB
	inTx   bool
}

// NewRepository returns a repository bound to the provided client.
func NewRepository(client *db.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Repository{client: client, db: client.DB()}, nil
}

func (r *Repository) withTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{client: r.client, db: tx, inTx: true}
}

// Atomically runs fn inside a database transaction. Nested calls reuse the
// active transaction.
func (r *Repository) Atomically(ctx context.Context, fn func(tx Store) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(r.withTx(tx))
	})
}

// FindProduct locks the product row on postgres when called inside a
// transaction, so concurrent sales cannot both spend the same stock.
func (r *Repository) FindProduct(ctx context.Context, id string) (Product, error) {
	var row models.Product
	q := r.db.WithContext(ctx)
	if r.inTx && r.client.Dialect() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return productFromModel(row), nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, productFromModel(row))
	}
	return out, nil
}

// SaveProduct updates the product in place or inserts it when absent.
func (r *Repository) SaveProduct(ctx context.Context, product Product) error {
	row := productToModel(product)
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "category", "price", "price_per_gram", "stock", "updated_at").
		Updates(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) FindSale(ctx context.Context, id string) (Sale, error) {
	var row models.Sale
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, err
	}
	return saleFromModel(row)
}

func (r *Repository) ListSales(ctx context.Context) ([]Sale, error) {
	var rows []models.Sale
	if err := r.db.WithContext(ctx).Order("seq DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Sale, 0, len(rows))
	for _, row := range rows {
		sale, err := saleFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, nil
}

func (r *Repository) InsertSale(ctx context.Context, sale Sale) error {
	row := saleToModel(sale)
	return r.db.WithContext(ctx).Create(&row).Error
}

// ReplaceSale overwrites every mutable column; id and seq stay put.
func (r *Repository) ReplaceSale(ctx context.Context, sale Sale) error {
	row := saleToModel(sale)
	result := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", sale.ID).
		Select("sale_date", "product_id", "mode", "package_color", "package_size", "grams", "quantity", "unit_price", "total_amount", "comment", "updated_at").
		Updates(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteSale(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Sale{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func productFromModel(row models.Product) Product {
	p := Product{
		ID:       row.ID,
		Name:     row.Name,
		Category: row.Category,
		Price:    row.Price,
	}
	if row.PricePerGram.Valid {
		v := row.PricePerGram.Decimal
		p.PricePerGram = &v
	}
	if row.Stock.Valid {
		v := row.Stock.Decimal
		p.Stock = &v
	}
	return p
}

func productToModel(p Product) models.Product {
	return models.Product{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Price:        p.Price,
		PricePerGram: nullDecimal(p.PricePerGram),
		Stock:        nullDecimal(p.Stock),
	}
}

func saleFromModel(row models.Sale) (Sale, error) {
	sale := Sale{
		ID:          row.ID,
		Seq:         row.Seq,
		Date:        row.SaleDate,
		ProductID:   row.ProductID,
		Quantity:    row.Quantity,
		UnitPrice:   row.UnitPrice,
		TotalAmount: row.TotalAmount,
		Comment:     row.Comment,
	}
	switch row.Mode {
	case enums.SaleModePackage:
		if row.PackageColor == nil || row.PackageSize == nil {
			return Sale{}, fmt.Errorf("sale %s: package mode without color or size", row.ID)
		}
		sale.Variant = PackageVariant{Color: *row.PackageColor, Size: *row.PackageSize}
	case enums.SaleModeGrams:
		if !row.Grams.Valid {
			return Sale{}, fmt.Errorf("sale %s: grams mode without grams", row.ID)
		}
		sale.Variant = GramsVariant{Grams: row.Grams.Decimal}
	default:
		return Sale{}, fmt.Errorf("sale %s: unknown mode %q", row.ID, row.Mode)
	}
	return sale, nil
}

func saleToModel(s Sale) models.Sale {
	row := models.Sale{
		ID:          s.ID,
		Seq:         s.Seq,
		SaleDate:    s.Date,
		ProductID:   s.ProductID,
		Mode:        s.Mode(),
		Quantity:    s.Quantity,
		UnitPrice:   s.UnitPrice,
		TotalAmount: s.TotalAmount,
		Comment:     s.Comment,
	}
	switch v := s.Variant.(type) {
	case PackageVariant:
		color, size := v.Color, v.Size
		row.PackageColor = &color
		row.PackageSize = &size
	case GramsVariant:
		row.Grams = decimal.NullDecimal{Decimal: v.Grams, Valid: true}
	}
	return row
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}
