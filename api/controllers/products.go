package controllers

import (
	"net/http"

	"github.com/angelmondragon/herb-sales-ledger/api/responses"
	"github.com/angelmondragon/herb-sales-ledger/internal/sales"
	pkgerrors "github.com/angelmondragon/herb-sales-ledger/pkg/errors"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
)

// ListProducts returns the catalog in insertion order.
func ListProducts(svc sales.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sales.NewProductDTOs(products))
	}
}
