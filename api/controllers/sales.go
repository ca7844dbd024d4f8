package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/herb-sales-ledger/api/responses"
	"github.com/angelmondragon/herb-sales-ledger/api/validators"
	"github.com/angelmondragon/herb-sales-ledger/internal/sales"
	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/herb-sales-ledger/pkg/errors"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
	"github.com/angelmondragon/herb-sales-ledger/pkg/types"
)

const maxCommentLength = 500

type saleRequest struct {
	Date         string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ProductID    string           `json:"product_id" validate:"required"`
	Mode         string           `json:"mode" validate:"omitempty,oneof=package grams"`
	PackageColor *string          `json:"package_color,omitempty" validate:"omitempty,oneof=red green yellow"`
	PackageSize  *string          `json:"package_size,omitempty" validate:"omitempty,oneof=large small"`
	Grams        *decimal.Decimal `json:"grams,omitempty" validate:"omitempty,min=1"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty" validate:"omitempty,min=1"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,min=1"`
	Comment      *string          `json:"comment,omitempty" validate:"omitempty,max=500"`
}

func (p saleRequest) toInput() sales.SaleInput {
	input := sales.SaleInput{
		Date:      strings.TrimSpace(p.Date),
		ProductID: validators.SanitizeString(p.ProductID, 64),
		Mode:      enums.SaleModePackage,
		Grams:     p.Grams,
		UnitPrice: p.UnitPrice,
	}
	if p.Mode != "" {
		input.Mode = enums.SaleMode(p.Mode)
	}
	if p.PackageColor != nil {
		color := enums.PackageColor(*p.PackageColor)
		input.PackageColor = &color
	}
	if p.PackageSize != nil {
		size := enums.PackageSize(*p.PackageSize)
		input.PackageSize = &size
	}
	if p.Quantity != nil {
		input.Quantity = *p.Quantity
	}
	if p.Comment != nil {
		comment := validators.SanitizeString(*p.Comment, maxCommentLength)
		input.Comment = &comment
	}
	return input
}

// ListSales returns every sale, newest first, with its product.
func ListSales(svc sales.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		items, err := svc.ListSales(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sales.NewSaleDTOs(items))
	}
}

func GetSale(svc sales.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		saleID, err := saleIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.GetSale(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sales.NewSaleDTO(sale))
	}
}

// CreateSale records a new sale and answers 201 with the stored record.
func CreateSale(svc sales.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.AddSale(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sales.NewSaleDTO(sale))
	}
}

// UpdateSale replaces every mutable field of an existing sale.
func UpdateSale(svc sales.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		saleID, err := saleIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.UpdateSale(r.Context(), saleID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sales.NewSaleDTO(sale))
	}
}

func DeleteSale(svc sales.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		saleID, err := saleIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveSale(r.Context(), saleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// GroupedSales returns sales bucketed by date plus the overall revenue.
func GroupedSales(svc sales.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		groups, err := svc.ListGroupedByDate(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sales.NewGroupedSalesDTO(groups))
	}
}

func SalesRevenue(svc sales.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		// one read so the total and the count describe the same sales
		items, err := svc.ListSales(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.RevenueSummary{
			TotalRevenue: sales.SumTotals(items).String(),
			SaleCount:    len(items),
		})
	}
}

func saleIDParam(r *http.Request) (string, error) {
	saleID := strings.TrimSpace(chi.URLParam(r, "saleId"))
	if saleID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	return saleID, nil
}
