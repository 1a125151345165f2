// Package invoices manages the clinic's therapy invoices: numbering,
// CRUD, filtering, per-customer totals and CSV/PDF rendering.
package invoices

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wolfman30/rehab-scheduler/internal/therapy"
)

// TimestampLayout is how invoice timestamps are displayed and filtered.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	// ErrNotFound is returned when no invoice has the requested number.
	ErrNotFound = errors.New("invoice not found")

	// ErrDuplicateInvoiceNo is returned when creating an invoice whose number is taken.
	ErrDuplicateInvoiceNo = errors.New("invoice number already exists")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid invoice")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invoices: invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invoice is one billed course of therapy sessions.
type Invoice struct {
	InvoiceNo       int64        `json:"invoice_no"`
	IssuedAt        time.Time    `json:"issued_at"`
	DueAt           time.Time    `json:"due_at"`
	CustomerID      int64        `json:"customer_id"`
	FirstName       string       `json:"first_name"`
	LastName        string       `json:"last_name"`
	Service         therapy.Type `json:"service"`
	Sessions        int          `json:"sessions"`
	PerSessionCents int64        `json:"per_session_cents"`
	TotalCents      int64        `json:"total_cents"`
	Mobile          string       `json:"mobile"`
}

// CustomerName joins first and last name.
func (i Invoice) CustomerName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// CreateRequest is the payload for a new invoice. The issue time is set by
// the server.
type CreateRequest struct {
	InvoiceNo  int64     `json:"invoice_no"`
	DueAt      time.Time `json:"due_at"`
	CustomerID int64     `json:"customer_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Service    string    `json:"service"`
	Sessions   int       `json:"sessions"`
	Mobile     string    `json:"mobile"`
}

// Validate checks the required fields.
func (r CreateRequest) Validate() error {
	if r.InvoiceNo <= 0 {
		return &ValidationError{Field: "invoice_no", Message: "must be a positive number"}
	}
	return validateCommon(r.DueAt, r.FirstName, r.Service, r.Sessions)
}

// Build validates r and prices the invoice.
func (r CreateRequest) Build(issuedAt time.Time) (Invoice, error) {
	if err := r.Validate(); err != nil {
		return Invoice{}, err
	}
	return priced(Invoice{
		InvoiceNo:  r.InvoiceNo,
		IssuedAt:   issuedAt,
		DueAt:      r.DueAt,
		CustomerID: r.CustomerID,
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		Sessions:   r.Sessions,
		Mobile:     strings.TrimSpace(r.Mobile),
	}, r.Service)
}

// UpdateRequest replaces every editable field of an invoice.
type UpdateRequest struct {
	IssuedAt   time.Time `json:"issued_at"`
	DueAt      time.Time `json:"due_at"`
	CustomerID int64     `json:"customer_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Service    string    `json:"service"`
	Sessions   int       `json:"sessions"`
	Mobile     string    `json:"mobile"`
}

// Validate checks the required fields.
func (r UpdateRequest) Validate() error {
	if r.IssuedAt.IsZero() {
		return &ValidationError{Field: "issued_at", Message: "is required"}
	}
	return validateCommon(r.DueAt, r.FirstName, r.Service, r.Sessions)
}

// Apply validates r and returns the repriced invoice number no.
func (r UpdateRequest) Apply(no int64) (Invoice, error) {
	if err := r.Validate(); err != nil {
		return Invoice{}, err
	}
	return priced(Invoice{
		InvoiceNo:  no,
		IssuedAt:   r.IssuedAt,
		DueAt:      r.DueAt,
		CustomerID: r.CustomerID,
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		Sessions:   r.Sessions,
		Mobile:     strings.TrimSpace(r.Mobile),
	}, r.Service)
}

func validateCommon(due time.Time, first, service string, sessions int) error {
	switch {
	case due.IsZero():
		return &ValidationError{Field: "due_at", Message: "is required"}
	case strings.TrimSpace(first) == "":
		return &ValidationError{Field: "first_name", Message: "is required"}
	case strings.TrimSpace(service) == "":
		return &ValidationError{Field: "service", Message: "select a service"}
	case sessions <= 0:
		return &ValidationError{Field: "sessions", Message: "must be at least 1"}
	case sessions > math.MaxInt32:
		return &ValidationError{Field: "sessions", Message: fmt.Sprintf("must be at most %d", math.MaxInt32)}
	}
	if _, err := therapy.Parse(service); err != nil {
		return &ValidationError{Field: "service", Message: err.Error()}
	}
	return nil
}

func priced(inv Invoice, service string) (Invoice, error) {
	t, err := therapy.Parse(service)
	if err != nil {
		return Invoice{}, &ValidationError{Field: "service", Message: err.Error()}
	}
	price, _ := therapy.SessionPriceCents(t)
	inv.Service = t
	inv.PerSessionCents = price
	inv.TotalCents = price * int64(inv.Sessions)
	return inv, nil
}

// Filter narrows a listing. InvoiceNo wins over CustomerID, which wins over
// the substring filters.
type Filter struct {
	InvoiceNo  *int64
	CustomerID *int64

	Issued         string
	CustomerIDLike string
	FirstName      string
	LastName       string
	Mobile         string
}

// FormatAmount renders minor units as "1,234.50".
func FormatAmount(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := fmt.Sprintf("%s.%02d", b.String(), cents%100)
	if neg {
		return "-" + out
	}
	return out
}
