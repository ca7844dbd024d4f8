package sales

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/herb-sales-ledger/pkg/enums"
)

func TestMemoryStoreAtomicallyRollsBack(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveProduct(ctx, Product{ID: "p", Name: "P", Category: enums.ProductCategoryOther, Price: dec("1")}))

	boom := errors.New("boom")
	err := store.Atomically(ctx, func(tx Store) error {
		require.NoError(t, tx.InsertSale(ctx, Sale{ID: "s1", ProductID: "p"}))
		require.NoError(t, tx.SaveProduct(ctx, Product{ID: "p", Name: "renamed"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
	product, err := store.FindProduct(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "P", product.Name)
}

func TestMemoryStoreSaleOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.InsertSale(ctx, Sale{ID: id}))
	}
	require.NoError(t, store.ReplaceSale(ctx, Sale{ID: "s2", Date: "2024-02-02"}))
	require.NoError(t, store.DeleteSale(ctx, "s3"))

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "s2", sales[0].ID)
	assert.Equal(t, "2024-02-02", sales[0].Date)
	assert.Equal(t, "s1", sales[1].ID)

	assert.ErrorIs(t, store.DeleteSale(ctx, "s3"), ErrNotFound)
	assert.ErrorIs(t, store.ReplaceSale(ctx, Sale{ID: "s3"}), ErrNotFound)
	_, err = store.FindSale(ctx, "s3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListProductsKeepsInsertionOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, store.SaveProduct(ctx, Product{ID: id}))
	}
	require.NoError(t, store.SaveProduct(ctx, Product{ID: "a", Name: "updated"}))

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{products[0].ID, products[1].ID, products[2].ID})
	assert.Equal(t, "updated", products[1].Name)
}
