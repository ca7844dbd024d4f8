package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/herb-sales-ledger/api/responses"
	"github.com/angelmondragon/herb-sales-ledger/api/validators"
	"github.com/angelmondragon/herb-sales-ledger/internal/report"
	"github.com/angelmondragon/herb-sales-ledger/internal/sales"
	pkgerrors "github.com/angelmondragon/herb-sales-ledger/pkg/errors"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
)

// ReportOptions carries the export defaults taken from configuration.
type ReportOptions struct {
	Mode   report.Mode
	Locale string
	Clock  func() time.Time
}

// ExportSalesCSV downloads the full ledger as CSV. The language comes from
// ?locale, then Accept-Language, then the configured default; ?mode may
// override the configured join mode.
func ExportSalesCSV(svc sales.Ledger, opts ReportOptions, logg *logger.Logger) http.HandlerFunc {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = report.ModePlain
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		mode, err := validators.ParseQueryEnum(r, "mode", string(opts.Mode), string(report.ModePlain), string(report.ModeQuoted))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labels := report.LabelsFor(
			r.URL.Query().Get("locale"),
			r.Header.Get("Accept-Language"),
			opts.Locale,
		)

		items, err := svc.ListSales(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, err := report.NewFormatter(report.ParseMode(mode), labels).ToCSV(items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render report"))
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"rows":   len(items),
				"mode":   mode,
				"locale": labels.Tag.String(),
			})
			logg.Info(ctx, "sales report exported")
		}
		responses.WriteCSV(w, report.FileName(opts.Clock()), body)
	}
}
