package invoices

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/rehab-scheduler/internal/observability/metrics"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

var tracer = otel.Tracer("rehab.internal.invoices")

// Manager applies validated invoice requests to a repository.
type Manager struct {
	repo    Repository
	logger  *logging.Logger
	metrics *metrics.SchedulerMetrics
	now     func() time.Time
}

// NewManager creates a manager. metrics may be nil.
func NewManager(repo Repository, m *metrics.SchedulerMetrics, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{repo: repo, logger: logger, metrics: m, now: time.Now}
}

func (m *Manager) observe(span trace.Span, op string, err error) {
	outcome := "ok"
	if err != nil {
		span.RecordError(err)
		outcome = outcomeOf(err)
	}
	m.metrics.ObserveInvoice(op, outcome)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrDuplicateInvoiceNo):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// NextInvoiceNo suggests the number for a new invoice.
func (m *Manager) NextInvoiceNo(ctx context.Context) (int64, error) {
	return m.repo.NextInvoiceNo(ctx)
}

// Create prices and stores a new invoice issued now.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (Invoice, error) {
	ctx, span := tracer.Start(ctx, "invoices.create", trace.WithAttributes(
		attribute.Int64("rehab.invoice_no", req.InvoiceNo),
	))
	defer span.End()

	inv, err := req.Build(m.now().UTC().Truncate(time.Second))
	if err == nil {
		err = m.repo.Create(ctx, inv)
	}
	m.observe(span, "create", err)
	if err != nil {
		return Invoice{}, err
	}
	m.logger.Info("invoice created", "invoice_no", inv.InvoiceNo, "service", inv.Service, "total_cents", inv.TotalCents)
	return inv, nil
}

// Update reprices and overwrites invoice no.
func (m *Manager) Update(ctx context.Context, no int64, req UpdateRequest) (Invoice, error) {
	ctx, span := tracer.Start(ctx, "invoices.update", trace.WithAttributes(
		attribute.Int64("rehab.invoice_no", no),
	))
	defer span.End()

	inv, err := req.Apply(no)
	if err == nil {
		err = m.repo.Update(ctx, inv)
	}
	m.observe(span, "update", err)
	if err != nil {
		return Invoice{}, err
	}
	m.logger.Info("invoice updated", "invoice_no", no)
	return inv, nil
}

// Delete removes invoice no.
func (m *Manager) Delete(ctx context.Context, no int64) error {
	ctx, span := tracer.Start(ctx, "invoices.delete", trace.WithAttributes(
		attribute.Int64("rehab.invoice_no", no),
	))
	defer span.End()

	err := m.repo.Delete(ctx, no)
	m.observe(span, "delete", err)
	if err == nil {
		m.logger.Info("invoice deleted", "invoice_no", no)
	}
	return err
}

// Get loads invoice no.
func (m *Manager) Get(ctx context.Context, no int64) (Invoice, error) {
	return m.repo.Get(ctx, no)
}

// List returns invoices matching f, newest number first.
func (m *Manager) List(ctx context.Context, f Filter) ([]Invoice, error) {
	return m.repo.List(ctx, f)
}

// CustomerTotal sums what a customer has been billed.
func (m *Manager) CustomerTotal(ctx context.Context, customerID int64) (int64, error) {
	return m.repo.CustomerTotal(ctx, customerID)
}
