package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/angelmondragon/herb-sales-ledger/internal/sales"
)

// Mode selects how fields are joined.
type Mode string

const (
	// ModePlain joins fields with bare commas and never quotes. Embedded
	// commas in product names or comments shift the columns.
	ModePlain Mode = "plain"
	// ModeQuoted writes RFC 4180 records.
	ModeQuoted Mode = "quoted"
)

// ParseMode maps a configuration value onto a Mode, defaulting to plain.
func ParseMode(value string) Mode {
	if strings.EqualFold(strings.TrimSpace(value), string(ModeQuoted)) {
		return ModeQuoted
	}
	return ModePlain
}

// row is one exported sale, already rendered to text.
type row struct {
	Date         string `csv:"date"`
	Product      string `csv:"product"`
	Mode         string `csv:"mode"`
	PackageColor string `csv:"package_color"`
	PackageSize  string `csv:"package_size"`
	Grams        string `csv:"grams"`
	Quantity     string `csv:"quantity"`
	UnitPrice    string `csv:"unit_price"`
	Total        string `csv:"total"`
	Stock        string `csv:"stock"`
}

func (r row) fields() []string {
	return []string{
		r.Date,
		r.Product,
		r.Mode,
		r.PackageColor,
		r.PackageSize,
		r.Grams,
		r.Quantity,
		r.UnitPrice,
		r.Total,
		r.Stock,
	}
}

// Formatter renders ledger sales as CSV text.
type Formatter struct {
	mode   Mode
	labels Labels
}

// NewFormatter builds a formatter; zero values mean plain mode in English.
func NewFormatter(mode Mode, labels Labels) *Formatter {
	if mode == "" {
		mode = ModePlain
	}
	if labels.Modes == nil {
		labels = supported[0]
	}
	return &Formatter{mode: mode, labels: labels}
}

// WithLabels returns a copy of the formatter using other labels.
func (f *Formatter) WithLabels(labels Labels) *Formatter {
	return NewFormatter(f.mode, labels)
}

// Mode reports the join mode in use.
func (f *Formatter) Mode() Mode {
	return f.mode
}

// ToCSV writes a header line and one line per sale in the order given.
// Plain output has no trailing newline, so zero sales yield just the header.
func (f *Formatter) ToCSV(items []sales.SaleWithProduct) (string, error) {
	rows := make([]row, 0, len(items))
	for _, item := range items {
		rows = append(rows, f.render(item))
	}
	if f.mode == ModeQuoted {
		return f.quoted(rows)
	}
	return f.plain(rows), nil
}

func (f *Formatter) plain(rows []row) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(f.labels.Header(), ","))
	for _, r := range rows {
		lines = append(lines, strings.Join(r.fields(), ","))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) quoted(rows []row) (string, error) {
	var buf bytes.Buffer
	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(&buf))
	if err := writer.Write(f.labels.Header()); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	if len(rows) > 0 {
		if err := gocsv.MarshalCSVWithoutHeaders(&rows, writer); err != nil {
			return "", fmt.Errorf("write csv rows: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

func (f *Formatter) render(item sales.SaleWithProduct) row {
	r := row{
		Date:      item.Date,
		Product:   item.Product.Name,
		Mode:      f.labels.Modes[item.Mode()],
		Quantity:  item.Quantity.String(),
		UnitPrice: item.UnitPrice.String(),
		Total:     item.TotalAmount.String(),
	}
	if pkg, ok := item.Package(); ok {
		r.PackageColor = f.labels.Colors[pkg.Color]
		r.PackageSize = f.labels.Sizes[pkg.Size]
	}
	if grams, ok := item.Grams(); ok {
		r.Grams = grams.Grams.String()
	}
	if item.Product.Stock != nil {
		r.Stock = item.Product.Stock.String()
	}
	return r
}

// FileName is the download name for a report produced at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("sales-report-%s.csv", now.UTC().Format(sales.DateLayout))
}
