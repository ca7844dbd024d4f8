package sales

import (
	"github.com/shopspring/decimal"
)

// ProductDTO is the product payload returned to clients.
type ProductDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Price        decimal.Decimal  `json:"price"`
	PricePerGram *decimal.Decimal `json:"price_per_gram,omitempty"`
	Stock        *decimal.Decimal `json:"stock,omitempty"`
}

// SaleDTO flattens the sale variant into mode-specific optional fields.
type SaleDTO struct {
	ID           string           `json:"id"`
	Date         string           `json:"date"`
	ProductID    string           `json:"product_id"`
	Mode         string           `json:"mode"`
	PackageColor *string          `json:"package_color,omitempty"`
	PackageSize  *string          `json:"package_size,omitempty"`
	Grams        *decimal.Decimal `json:"grams,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Comment      *string          `json:"comment,omitempty"`
	Product      *ProductDTO      `json:"product,omitempty"`
}

// DayGroupDTO is one date bucket of the grouped view.
type DayGroupDTO struct {
	Date       string          `json:"date"`
	Sales      []SaleDTO       `json:"sales"`
	DailyTotal decimal.Decimal `json:"daily_total"`
}

// GroupedSalesDTO is the grouped view plus the overall revenue.
type GroupedSalesDTO struct {
	Groups       []DayGroupDTO   `json:"groups"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

func NewProductDTO(p Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category.String(),
		Price:        p.Price,
		PricePerGram: p.PricePerGram,
		Stock:        p.Stock,
	}
}

func NewProductDTOs(products []Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}

func NewSaleDTO(s SaleWithProduct) SaleDTO {
	dto := SaleDTO{
		ID:          s.ID,
		Date:        s.Date,
		ProductID:   s.ProductID,
		Mode:        s.Mode().String(),
		Quantity:    s.Quantity,
		UnitPrice:   s.UnitPrice,
		TotalAmount: s.TotalAmount,
		Comment:     s.Comment,
	}
	switch v := s.Variant.(type) {
	case PackageVariant:
		color, size := v.Color.String(), v.Size.String()
		dto.PackageColor = &color
		dto.PackageSize = &size
	case GramsVariant:
		grams := v.Grams
		dto.Grams = &grams
	}
	if s.Product.ID != "" {
		product := NewProductDTO(s.Product)
		dto.Product = &product
	}
	return dto
}

func NewSaleDTOs(sales []SaleWithProduct) []SaleDTO {
	out := make([]SaleDTO, 0, len(sales))
	for _, s := range sales {
		out = append(out, NewSaleDTO(s))
	}
	return out
}

func NewGroupedSalesDTO(groups []DayGroup) GroupedSalesDTO {
	out := GroupedSalesDTO{
		Groups:       make([]DayGroupDTO, 0, len(groups)),
		TotalRevenue: decimal.Zero,
	}
	for _, g := range groups {
		out.Groups = append(out.Groups, DayGroupDTO{
			Date:       g.Date,
			Sales:      NewSaleDTOs(g.Sales),
			DailyTotal: g.DailyTotal,
		})
		out.TotalRevenue = out.TotalRevenue.Add(g.DailyTotal)
	}
	return out
}
