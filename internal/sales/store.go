package sales

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by stores when a product or sale id is unknown.
var ErrNotFound = errors.New("record not found")

// Store persists the catalog and the sale collection. ListSales returns sales
// newest-first by insertion; InsertSale places the record at the head.
type Store interface {
	Atomically(ctx context.Context, fn func(tx Store) error) error

	FindProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	SaveProduct(ctx context.Context, product Product) error

	FindSale(ctx context.Context, id string) (Sale, error)
	ListSales(ctx context.Context) ([]Sale, error)
	InsertSale(ctx context.Context, sale Sale) error
	ReplaceSale(ctx context.Context, sale Sale) error
	DeleteSale(ctx context.Context, id string) error
}

type memoryState struct {
	products     map[string]Product
	productOrder []string
	sales        []Sale
}

func newMemoryState() *memoryState {
	return &memoryState{products: map[string]Product{}}
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		products:     make(map[string]Product, len(s.products)),
		productOrder: append([]string(nil), s.productOrder...),
		sales:        append([]Sale(nil), s.sales...),
	}
	for id, p := range s.products {
		out.products[id] = p
	}
	return out
}

func (s *memoryState) findProduct(id string) (Product, error) {
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *memoryState) listProducts() []Product {
	out := make([]Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		out = append(out, s.products[id])
	}
	return out
}

func (s *memoryState) saveProduct(p Product) {
	if _, ok := s.products[p.ID]; !ok {
		s.productOrder = append(s.productOrder, p.ID)
	}
	s.products[p.ID] = p
}

func (s *memoryState) saleIndex(id string) int {
	for i := range s.sales {
		if s.sales[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryState) findSale(id string) (Sale, error) {
	idx := s.saleIndex(id)
	if idx < 0 {
		return Sale{}, ErrNotFound
	}
	return s.sales[idx], nil
}

func (s *memoryState) insertSale(sale Sale) {
	s.sales = append([]Sale{sale}, s.sales...)
}

func (s *memoryState) replaceSale(sale Sale) error {
	idx := s.saleIndex(sale.ID)
	if idx < 0 {
		return ErrNotFound
	}
	s.sales[idx] = sale
	return nil
}

func (s *memoryState) deleteSale(id string) error {
	idx := s.saleIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.sales = append(s.sales[:idx:idx], s.sales[idx+1:]...)
	return nil
}

// MemoryStore keeps the ledger in process memory. Values are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

// Atomically runs fn against a private copy of the state and publishes the
// copy only when fn succeeds.
func (m *MemoryStore) Atomically(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memoryTx{state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MemoryStore) FindProduct(_ context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.findProduct(id)
}

func (m *MemoryStore) ListProducts(context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listProducts(), nil
}

func (m *MemoryStore) SaveProduct(_ context.Context, product Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.saveProduct(product)
	return nil
}

func (m *MemoryStore) FindSale(_ context.Context, id string) (Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.findSale(id)
}

func (m *MemoryStore) ListSales(context.Context) ([]Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Sale(nil), m.state.sales...), nil
}

func (m *MemoryStore) InsertSale(_ context.Context, sale Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.insertSale(sale)
	return nil
}

func (m *MemoryStore) ReplaceSale(_ context.Context, sale Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.replaceSale(sale)
}

func (m *MemoryStore) DeleteSale(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteSale(id)
}

// memoryTx is the view handed to Atomically callbacks; the outer lock is held.
type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) Atomically(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) FindProduct(_ context.Context, id string) (Product, error) {
	return t.state.findProduct(id)
}

func (t *memoryTx) ListProducts(context.Context) ([]Product, error) {
	return t.state.listProducts(), nil
}

func (t *memoryTx) SaveProduct(_ context.Context, product Product) error {
	t.state.saveProduct(product)
	return nil
}

func (t *memoryTx) FindSale(_ context.Context, id string) (Sale, error) {
	return t.state.findSale(id)
}

func (t *memoryTx) ListSales(context.Context) ([]Sale, error) {
	return append([]Sale(nil), t.state.sales...), nil
}

func (t *memoryTx) InsertSale(_ context.Context, sale Sale) error {
	t.state.insertSale(sale)
	return nil
}

func (t *memoryTx) ReplaceSale(_ context.Context, sale Sale) error {
	return t.state.replaceSale(sale)
}

func (t *memoryTx) DeleteSale(_ context.Context, id string) error {
	return t.state.deleteSale(id)
}
