package invoices

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// InMemoryRepository keeps invoices in process memory. It backs the API when
// no database is configured.
type InMemoryRepository struct {
	mu       sync.RWMutex
	invoices map[int64]Invoice
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{invoices: make(map[int64]Invoice)}
}

func (r *InMemoryRepository) NextInvoiceNo(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var highest int64
	for no := range r.invoices {
		highest = max(highest, no)
	}
	return highest + 1, nil
}

func (r *InMemoryRepository) Create(_ context.Context, inv Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.InvoiceNo]; ok {
		return fmt.Errorf("invoices: create %d: %w", inv.InvoiceNo, ErrDuplicateInvoiceNo)
	}
	r.invoices[inv.InvoiceNo] = inv
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, inv Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.InvoiceNo]; !ok {
		return fmt.Errorf("invoices: update %d: %w", inv.InvoiceNo, ErrNotFound)
	}
	r.invoices[inv.InvoiceNo] = inv
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, invoiceNo int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[invoiceNo]; !ok {
		return fmt.Errorf("invoices: delete %d: %w", invoiceNo, ErrNotFound)
	}
	delete(r.invoices, invoiceNo)
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, invoiceNo int64) (Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[invoiceNo]
	if !ok {
		return Invoice{}, fmt.Errorf("invoices: get %d: %w", invoiceNo, ErrNotFound)
	}
	return inv, nil
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Invoice{}
	for _, inv := range r.invoices {
		if matches(inv, f) {
			out = append(out, inv)
		}
	}
	slices.SortFunc(out, func(a, b Invoice) int { return cmpDesc(a.InvoiceNo, b.InvoiceNo) })
	return out, nil
}

func (r *InMemoryRepository) CustomerTotal(_ context.Context, customerID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, inv := range r.invoices {
		if inv.CustomerID == customerID {
			total += inv.TotalCents
		}
	}
	return total, nil
}

func matches(inv Invoice, f Filter) bool {
	switch {
	case f.InvoiceNo != nil:
		return inv.InvoiceNo == *f.InvoiceNo
	case f.CustomerID != nil:
		return inv.CustomerID == *f.CustomerID
	}
	return contains(inv.IssuedAt.Format(TimestampLayout), f.Issued) &&
		contains(strconv.FormatInt(inv.CustomerID, 10), f.CustomerIDLike) &&
		contains(inv.FirstName, f.FirstName) &&
		contains(inv.LastName, f.LastName) &&
		contains(inv.Mobile, f.Mobile)
}

func contains(s, sub string) bool {
	return sub == "" || strings.Contains(s, sub)
}

func cmpDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
