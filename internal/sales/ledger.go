package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/herb-sales-ledger/pkg/errors"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
)

// Ledger owns the product catalog and the sale collection.
type Ledger interface {
	AddSale(ctx context.Context, input SaleInput) (SaleWithProduct, error)
	UpdateSale(ctx context.Context, id string, input SaleInput) (SaleWithProduct, error)
	RemoveSale(ctx context.Context, id string) error
	GetSale(ctx context.Context, id string) (SaleWithProduct, error)
	ListSales(ctx context.Context) ([]SaleWithProduct, error)
	ListGroupedByDate(ctx context.Context) ([]DayGroup, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	Seed(ctx context.Context, products []Product, sales []Sale) error
}

// Recorder receives ledger activity for metrics.
type Recorder interface {
	RecordMutation(operation, mode string)
	SetTotals(revenue decimal.Decimal, sales int)
}

// LedgerParams wires a Ledger. Store and IDs are required.
type LedgerParams struct {
	Store      Store
	IDs        IDGenerator
	Recorder   Recorder
	Logger     *logger.Logger
	TrackStock bool
	Clock      func() time.Time
}

type ledger struct {
	store      Store
	ids        IDGenerator
	recorder   Recorder
	logg       *logger.Logger
	trackStock bool
	now        func() time.Time
}

// NewLedger constructs a ledger over the provided store.
func NewLedger(params LedgerParams) (Ledger, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("sales store required")
	}
	if params.IDs == nil {
		return nil, fmt.Errorf("id generator required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &ledger{
		store:      params.Store,
		ids:        params.IDs,
		recorder:   params.Recorder,
		logg:       params.Logger,
		trackStock: params.TrackStock,
		now:        params.Clock,
	}, nil
}

const (
	operationAdd    = "add"
	operationUpdate = "update"
	operationRemove = "remove"
)

// AddSale validates input, snapshots the unit price and prepends the sale.
func (l *ledger) AddSale(ctx context.Context, input SaleInput) (SaleWithProduct, error) {
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return SaleWithProduct{}, validationError("product_id", "product is required")
	}

	var created SaleWithProduct
	err := l.store.Atomically(ctx, func(tx Store) error {
		product, err := l.findProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		sale, err := buildSale(input, product, l.now())
		if err != nil {
			return err
		}
		sale.ID, sale.Seq = l.ids.NextSaleID()

		product, err = l.takeStock(ctx, tx, product, sale.Quantity)
		if err != nil {
			return err
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale")
		}
		created = SaleWithProduct{Sale: sale, Product: product}
		return nil
	})
	if err != nil {
		return SaleWithProduct{}, err
	}

	logCtx := l.logg.WithSaleID(l.logg.WithProductID(ctx, productID), created.ID)
	l.logg.Info(logCtx, "sale added")
	l.afterMutation(ctx, operationAdd, created.Sale)
	return created, nil
}

// UpdateSale replaces every mutable field of the sale and keeps its id.
func (l *ledger) UpdateSale(ctx context.Context, id string, input SaleInput) (SaleWithProduct, error) {
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return SaleWithProduct{}, validationError("product_id", "product is required")
	}

	var updated SaleWithProduct
	err := l.store.Atomically(ctx, func(tx Store) error {
		existing, err := l.findSale(ctx, tx, id)
		if err != nil {
			return err
		}
		product, err := l.findProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		sale, err := buildSale(input, product, l.now())
		if err != nil {
			return err
		}
		sale.ID, sale.Seq = existing.ID, existing.Seq

		if err := l.restoreStock(ctx, tx, existing.ProductID, existing.Quantity); err != nil {
			return err
		}
		if product, err = l.findProduct(ctx, tx, productID); err != nil {
			return err
		}
		if product, err = l.takeStock(ctx, tx, product, sale.Quantity); err != nil {
			return err
		}
		if err := tx.ReplaceSale(ctx, sale); err != nil {
			return mapStoreError(err, "sale not found", "replace sale")
		}
		updated = SaleWithProduct{Sale: sale, Product: product}
		return nil
	})
	if err != nil {
		return SaleWithProduct{}, err
	}

	l.logg.Info(l.logg.WithSaleID(ctx, id), "sale updated")
	l.afterMutation(ctx, operationUpdate, updated.Sale)
	return updated, nil
}

// RemoveSale deletes the sale and returns its quantity to stock.
func (l *ledger) RemoveSale(ctx context.Context, id string) error {
	var removed Sale
	err := l.store.Atomically(ctx, func(tx Store) error {
		existing, err := l.findSale(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteSale(ctx, id); err != nil {
			return mapStoreError(err, "sale not found", "delete sale")
		}
		removed = existing
		return l.restoreStock(ctx, tx, existing.ProductID, existing.Quantity)
	})
	if err != nil {
		return err
	}

	l.logg.Info(l.logg.WithSaleID(ctx, id), "sale removed")
	l.afterMutation(ctx, operationRemove, removed)
	return nil
}

func (l *ledger) GetSale(ctx context.Context, id string) (SaleWithProduct, error) {
	sale, err := l.findSale(ctx, l.store, id)
	if err != nil {
		return SaleWithProduct{}, err
	}
	product, err := l.store.FindProduct(ctx, sale.ProductID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return SaleWithProduct{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if errors.Is(err, ErrNotFound) {
		product = Product{ID: sale.ProductID}
	}
	return SaleWithProduct{Sale: sale, Product: product}, nil
}

// ListSales returns every sale newest-first, joined with its current product.
func (l *ledger) ListSales(ctx context.Context) ([]SaleWithProduct, error) {
	sales, err := l.store.ListSales(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	products, err := l.store.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return joinProducts(sales, products), nil
}

func (l *ledger) ListGroupedByDate(ctx context.Context) ([]DayGroup, error) {
	sales, err := l.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByDate(sales), nil
}

func (l *ledger) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	sales, err := l.store.ListSales(ctx)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return SumTotals(sales), nil
}

func (l *ledger) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := l.store.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (l *ledger) GetProduct(ctx context.Context, id string) (Product, error) {
	return l.findProduct(ctx, l.store, id)
}

// Seed loads a catalog and historic sales. Sales are given newest-first and
// keep that order; their stock is considered already consumed.
func (l *ledger) Seed(ctx context.Context, products []Product, sales []Sale) error {
	for _, product := range products {
		if product.PricePerGram != nil && !product.Category.SellsByWeight() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "product %s: price per gram is only allowed for herbs", product.ID)
		}
	}

	err := l.store.Atomically(ctx, func(tx Store) error {
		known := make(map[string]Product, len(products))
		for _, product := range products {
			if err := tx.SaveProduct(ctx, product); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
			}
			known[product.ID] = product
		}
		now := l.now()
		for i := len(sales) - 1; i >= 0; i-- {
			product, ok := known[sales[i].ProductID]
			if !ok {
				found, err := l.findProduct(ctx, tx, sales[i].ProductID)
				if err != nil {
					return err
				}
				product, known[found.ID] = found, found
			}
			sale, err := buildSale(seedInput(sales[i]), product, now)
			if err != nil {
				return seedError(i, err)
			}
			sale.ID, sale.Seq = l.ids.NextSaleID()
			if err := tx.InsertSale(ctx, sale); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logg.Info(l.logg.WithFields(ctx, map[string]any{
		"products": len(products),
		"sales":    len(sales),
	}), "ledger seeded")
	l.refreshTotals(ctx)
	return nil
}

// seedInput turns a historic sale back into the input that would have
// produced it, pinning the recorded unit price.
func seedInput(sale Sale) SaleInput {
	unitPrice := sale.UnitPrice
	input := SaleInput{
		Date:      sale.Date,
		ProductID: sale.ProductID,
		Quantity:  sale.Quantity,
		UnitPrice: &unitPrice,
		Comment:   sale.Comment,
	}
	switch v := sale.Variant.(type) {
	case PackageVariant:
		input.Mode = enums.SaleModePackage
		input.PackageColor, input.PackageSize = &v.Color, &v.Size
	case GramsVariant:
		input.Mode = enums.SaleModeGrams
		input.Grams = &v.Grams
	}
	return input
}

// seedError keeps the field details of a rejected seed sale.
func seedError(index int, err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	return pkgerrors.Newf(typed.Code(), "seed sale %d: %s", index, typed.Message()).WithDetails(typed.Details())
}

func (l *ledger) findProduct(ctx context.Context, store Store, id string) (Product, error) {
	product, err := store.FindProduct(ctx, id)
	if err != nil {
		return Product{}, mapStoreError(err, "product not found", "load product")
	}
	return product, nil
}

func (l *ledger) findSale(ctx context.Context, store Store, id string) (Sale, error) {
	sale, err := store.FindSale(ctx, id)
	if err != nil {
		return Sale{}, mapStoreError(err, "sale not found", "load sale")
	}
	return sale, nil
}

// takeStock decrements tracked stock, refusing to oversell.
func (l *ledger) takeStock(ctx context.Context, tx Store, product Product, quantity decimal.Decimal) (Product, error) {
	if !l.trackStock || product.Stock == nil {
		return product, nil
	}
	if quantity.GreaterThan(*product.Stock) {
		return Product{}, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]string{
				"product_id": product.ID,
				"available":  product.Stock.String(),
				"requested":  quantity.String(),
			})
	}
	remaining := product.Stock.Sub(quantity)
	product.Stock = &remaining
	if err := tx.SaveProduct(ctx, product); err != nil {
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product stock")
	}
	return product, nil
}

func (l *ledger) restoreStock(ctx context.Context, tx Store, productID string, quantity decimal.Decimal) error {
	if !l.trackStock {
		return nil
	}
	product, err := tx.FindProduct(ctx, productID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Stock == nil {
		return nil
	}
	restored := product.Stock.Add(quantity)
	product.Stock = &restored
	if err := tx.SaveProduct(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product stock")
	}
	return nil
}

func (l *ledger) afterMutation(ctx context.Context, operation string, sale Sale) {
	if l.recorder == nil {
		return
	}
	l.recorder.RecordMutation(operation, sale.Mode().String())
	l.refreshTotals(ctx)
}

func (l *ledger) refreshTotals(ctx context.Context) {
	if l.recorder == nil {
		return
	}
	sales, err := l.store.ListSales(ctx)
	if err != nil {
		l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "refresh ledger totals failed")
		return
	}
	l.recorder.SetTotals(SumTotals(sales), len(sales))
}

func mapStoreError(err error, notFound, op string) error {
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func joinProducts(sales []Sale, products []Product) []SaleWithProduct {
	byID := make(map[string]Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	out := make([]SaleWithProduct, 0, len(sales))
	for _, sale := range sales {
		product, ok := byID[sale.ProductID]
		if !ok {
			product = Product{ID: sale.ProductID}
		}
		out = append(out, SaleWithProduct{Sale: sale, Product: product})
	}
	return out
}
