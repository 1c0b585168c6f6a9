// internal/adapters/memory/store.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// Store keeps products, lots and the sale ledger in process memory. It backs
// local development and service tests. Units of work are serialized, which
// gives the same observable behavior as row locks on a single lot.
type Store struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	products   map[uuid.UUID]domain.Product
	lots       map[uuid.UUID]domain.StockLot
	sales      map[uuid.UUID]domain.Sale
	salesByKey map[string]uuid.UUID
	lineItems  []domain.SaleLineItem
	nextTicket int64
	nextItemID int64
}

var (
	_ ports.StockLotRepository = (*Store)(nil)
	_ ports.ProductCatalog     = (*Store)(nil)
	_ ports.SaleUnitOfWork     = (*Store)(nil)
)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products:   make(map[uuid.UUID]domain.Product),
		lots:       make(map[uuid.UUID]domain.StockLot),
		sales:      make(map[uuid.UUID]domain.Sale),
		salesByKey: make(map[string]uuid.UUID),
	}
}

// FindProduct returns a product by id
func (s *Store) FindProduct(_ context.Context, productID uuid.UUID) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

// FindProducts returns the known products among productIDs
func (s *Store) FindProducts(_ context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]domain.Product, len(productIDs))
	for _, id := range productIDs {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// SaveProduct inserts or replaces a product
func (s *Store) SaveProduct(_ context.Context, product *domain.Product) error {
	product.PrepareForStorage()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[product.ID] = *product
	return nil
}

// FindByID returns a lot by id
func (s *Store) FindByID(_ context.Context, lotID uuid.UUID) (*domain.StockLot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lot, ok := s.lots[lotID]
	if !ok {
		return nil, domain.ErrLotNotFound
	}
	return &lot, nil
}

// FindByIDs returns the known lots among lotIDs
func (s *Store) FindByIDs(_ context.Context, lotIDs []uuid.UUID) (map[uuid.UUID]domain.StockLot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]domain.StockLot, len(lotIDs))
	for _, id := range lotIDs {
		if lot, ok := s.lots[id]; ok {
			out[id] = lot
		}
	}
	return out, nil
}

// FindByProduct returns all lots of a product, oldest first
func (s *Store) FindByProduct(_ context.Context, productID uuid.UUID) ([]domain.StockLot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.StockLot
	for _, lot := range s.lots {
		if lot.ProductID == productID {
			out = append(out, lot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Save inserts a new lot
func (s *Store) Save(_ context.Context, lot *domain.StockLot) error {
	lot.PrepareForStorage()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[lot.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	if _, ok := s.lots[lot.ID]; ok {
		return domain.ErrLotExists
	}
	s.lots[lot.ID] = *lot
	return nil
}

// Delete removes a lot that no sale references. It waits for the running
// unit of work so a lot cannot vanish between lock and commit.
func (s *Store) Delete(_ context.Context, lotID uuid.UUID) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lots[lotID]; !ok {
		return domain.ErrLotNotFound
	}
	if s.lotHasSalesLocked(lotID) {
		return domain.ErrLotHasSales
	}
	delete(s.lots, lotID)
	return nil
}

// HasSales reports whether any line item references the lot
func (s *Store) HasSales(_ context.Context, lotID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lotHasSalesLocked(lotID), nil
}

func (s *Store) lotHasSalesLocked(lotID uuid.UUID) bool {
	for _, item := range s.lineItems {
		if item.LotID == lotID {
			return true
		}
	}
	return false
}

// SaleLedger is the sale repository view of a Store.
type SaleLedger struct {
	store *Store
}

var _ ports.SaleRepository = (*SaleLedger)(nil)

// Sales returns the sale ledger backed by this store.
func (s *Store) Sales() *SaleLedger {
	return &SaleLedger{store: s}
}

// FindByID returns a committed sale with its items
func (l *SaleLedger) FindByID(_ context.Context, saleID uuid.UUID) (*domain.Sale, error) {
	return l.store.findSale(saleID)
}

// FindByIdempotencyKey returns the sale committed with key
func (l *SaleLedger) FindByIdempotencyKey(_ context.Context, key string) (*domain.Sale, error) {
	l.store.mu.RLock()
	id, ok := l.store.salesByKey[key]
	l.store.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	return l.store.findSale(id)
}

func (s *Store) findSale(saleID uuid.UUID) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	sale.Items = nil
	for _, item := range s.lineItems {
		if item.SaleID == saleID {
			sale.Items = append(sale.Items, item)
		}
	}
	return &sale, nil
}

// Execute runs fn with exclusive access to stock. Writes are staged and only
// applied when fn returns nil.
func (s *Store) Execute(ctx context.Context, fn func(tx ports.SaleTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &storeTx{
		store:   s,
		lots:    make(map[uuid.UUID]domain.StockLot),
		pending: make(map[uuid.UUID]bool),
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.commit()
}

// storeTx stages writes of one unit of work.
type storeTx struct {
	store   *Store
	lots    map[uuid.UUID]domain.StockLot
	pending map[uuid.UUID]bool
	sales   []domain.Sale
	items   []domain.SaleLineItem
	tickets int64
}

func (t *storeTx) LockLots(_ context.Context, lotIDs []uuid.UUID) (map[uuid.UUID]domain.StockLot, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	out := make(map[uuid.UUID]domain.StockLot, len(lotIDs))
	for _, id := range lotIDs {
		lot, ok := t.lots[id]
		if !ok {
			lot, ok = t.store.lots[id]
		}
		if !ok {
			continue
		}
		t.lots[id] = lot
		out[id] = lot
	}
	return out, nil
}

func (t *storeTx) DecrementLot(_ context.Context, lotID uuid.UUID, quantity int) error {
	lot, ok := t.lots[lotID]
	if !ok {
		return fmt.Errorf("lot %s was not locked: %w", lotID, domain.ErrLotNotFound)
	}
	next, err := lot.WithDecrement(quantity)
	if err != nil {
		return err
	}
	t.lots[lotID] = next
	t.pending[lotID] = true
	return nil
}

func (t *storeTx) InsertSale(_ context.Context, sale *domain.Sale) error {
	t.store.mu.RLock()
	_, dup := t.store.salesByKey[keyOf(sale)]
	base := t.store.nextTicket
	t.store.mu.RUnlock()

	if sale.IdempotencyKey != nil && dup {
		return domain.ErrDuplicateSaleKey
	}

	t.tickets++
	sale.TicketNumber = base + t.tickets
	sale.CreatedAt = time.Now().UTC()

	stored := *sale
	stored.Items = nil
	t.sales = append(t.sales, stored)
	return nil
}

func (t *storeTx) InsertLineItems(_ context.Context, items []domain.SaleLineItem) error {
	t.items = append(t.items, items...)
	return nil
}

func (t *storeTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.pending {
		if _, ok := s.lots[id]; !ok {
			return fmt.Errorf("lot %s disappeared before commit: %w", id, domain.ErrLotNotFound)
		}
	}

	for id := range t.pending {
		s.lots[id] = t.lots[id]
	}
	for _, sale := range t.sales {
		s.sales[sale.ID] = sale
		if sale.IdempotencyKey != nil {
			s.salesByKey[*sale.IdempotencyKey] = sale.ID
		}
	}
	for _, item := range t.items {
		s.nextItemID++
		item.ID = s.nextItemID
		s.lineItems = append(s.lineItems, item)
	}
	s.nextTicket += t.tickets
	return nil
}

func keyOf(sale *domain.Sale) string {
	if sale.IdempotencyKey == nil {
		return ""
	}
	return *sale.IdempotencyKey
}

// Snapshot reports stock levels by lot. Used by seed tooling and tests.
func (s *Store) Snapshot() map[uuid.UUID]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]int, len(s.lots))
	for id, lot := range s.lots {
		out[id] = lot.CurrentQuantity
	}
	return out
}

// SaleCount returns the number of committed sales.
func (s *Store) SaleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales)
}

// LineItemCount returns the number of committed line items.
func (s *Store) LineItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lineItems)
}
