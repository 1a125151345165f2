// Package scheduler is the presentation-facing entry point for appointment
// booking. It validates raw input, applies it to the ledger under a lock,
// notifies observers of each change and serves the view projections.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/rehab-scheduler/internal/export"
	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/internal/observability/metrics"
	"github.com/wolfman30/rehab-scheduler/internal/schedule"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
	"github.com/wolfman30/rehab-scheduler/internal/views"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

var tracer = otel.Tracer("rehab.internal.scheduler")

// ErrUnknownSlot is returned when a date/time pair is not a calendar slot.
var ErrUnknownSlot = errors.New("slot is not on the calendar")

// ValidationError reports a request rejected before it reached the ledger.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Observer is told about every successful ledger mutation.
type Observer interface {
	BookingChanged(ctx context.Context, change ledger.Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, change ledger.Change)

func (f ObserverFunc) BookingChanged(ctx context.Context, change ledger.Change) { f(ctx, change) }

// BookRequest is the raw booking form.
type BookRequest struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Phone   string `json:"phone"`
	Therapy string `json:"therapy"`
}

// CancelRequest is the raw cancellation form.
type CancelRequest struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Phone string `json:"phone"`
}

// SlotStatus describes one slot for a viewer.
type SlotStatus struct {
	Slot   schedule.Slot   `json:"slot"`
	Booked bool            `json:"booked"`
	State  views.SlotState `json:"state"`
	Colour string          `json:"colour"`
}

// Service owns the calendar and ledger for one clinic.
type Service struct {
	mu        sync.Mutex
	calendar  *schedule.Calendar
	ledger    *ledger.Ledger
	logger    *logging.Logger
	metrics   *metrics.SchedulerMetrics
	observers []Observer
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.SchedulerMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithObservers registers observers notified after each change.
func WithObservers(obs ...Observer) Option {
	return func(s *Service) { s.observers = append(s.observers, obs...) }
}

// WithClock overrides the time source used for export names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a calendar and ledger together. Both are required.
func NewService(cal *schedule.Calendar, l *ledger.Ledger, opts ...Option) *Service {
	if cal == nil || l == nil {
		panic("scheduler: calendar and ledger are required")
	}
	s := &Service{
		calendar: cal,
		ledger:   l,
		logger:   logging.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calendar returns the generated calendar. It is immutable.
func (s *Service) Calendar() *schedule.Calendar { return s.calendar }

// Therapies lists the selectable therapy categories.
func (s *Service) Therapies() []therapy.Type { return therapy.All() }

// ResolveSlot maps raw date and time input onto a calendar slot.
func (s *Service) ResolveSlot(date, clock string) (schedule.Slot, error) {
	if strings.TrimSpace(date) == "" {
		return schedule.Slot{}, invalid("date", "select a date")
	}
	if strings.TrimSpace(clock) == "" {
		return schedule.Slot{}, invalid("time", "select a time")
	}
	d, err := schedule.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return schedule.Slot{}, invalid("date", err.Error())
	}
	c, err := schedule.ParseClock(strings.TrimSpace(clock))
	if err != nil {
		return schedule.Slot{}, invalid("time", err.Error())
	}
	key := schedule.SlotKey{Date: d, Start: c}
	slot, ok := s.calendar.Lookup(key)
	if !ok {
		return schedule.Slot{}, fmt.Errorf("scheduler: %s: %w", key, ErrUnknownSlot)
	}
	return slot, nil
}

// Book validates req and records the booking.
func (s *Service) Book(ctx context.Context, req BookRequest) (ledger.Change, error) {
	ctx, span := tracer.Start(ctx, "scheduler.book", trace.WithAttributes(
		attribute.String("rehab.slot.date", req.Date),
		attribute.String("rehab.slot.time", req.Time),
		attribute.String("rehab.therapy", req.Therapy),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveLatency("book", time.Since(start).Seconds()) }()

	change, err := s.book(req)
	s.metrics.ObserveBooking("book", outcome(err))
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("booking rejected", "date", req.Date, "time", req.Time, "error", err)
		return ledger.Change{}, err
	}

	s.logger.Info("slot booked", "slot", change.Booking.Key.String(), "therapy", change.Booking.Therapy)
	s.notify(ctx, change)
	return change, nil
}

func (s *Service) book(req BookRequest) (ledger.Change, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return ledger.Change{}, invalid("phone", "enter a mobile number")
	}
	if strings.TrimSpace(req.Therapy) == "" {
		return ledger.Change{}, invalid("therapy", "select a therapy type")
	}
	t, err := therapy.Parse(req.Therapy)
	if err != nil {
		return ledger.Change{}, invalid("therapy", err.Error())
	}
	slot, err := s.ResolveSlot(req.Date, req.Time)
	if err != nil {
		return ledger.Change{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	change, err := s.ledger.Book(slot.Key, req.Phone, t)
	if err != nil {
		return ledger.Change{}, err
	}
	s.metrics.SetBookedSlots(s.ledger.Len())
	return change, nil
}

// Cancel validates req and removes the booking if the phone matches.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (ledger.Change, error) {
	ctx, span := tracer.Start(ctx, "scheduler.cancel", trace.WithAttributes(
		attribute.String("rehab.slot.date", req.Date),
		attribute.String("rehab.slot.time", req.Time),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveLatency("cancel", time.Since(start).Seconds()) }()

	change, err := s.cancel(req)
	s.metrics.ObserveBooking("cancel", outcome(err))
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("cancellation rejected", "date", req.Date, "time", req.Time, "error", err)
		return ledger.Change{}, err
	}

	s.logger.Info("booking cancelled", "slot", change.Booking.Key.String())
	s.notify(ctx, change)
	return change, nil
}

func (s *Service) cancel(req CancelRequest) (ledger.Change, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return ledger.Change{}, invalid("phone", "enter a mobile number")
	}
	slot, err := s.ResolveSlot(req.Date, req.Time)
	if err != nil {
		return ledger.Change{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	change, err := s.ledger.Cancel(slot.Key, req.Phone)
	if err != nil {
		return ledger.Change{}, err
	}
	s.metrics.SetBookedSlots(s.ledger.Len())
	return change, nil
}

func (s *Service) notify(ctx context.Context, change ledger.Change) {
	for _, o := range s.observers {
		o.BookingChanged(ctx, change)
	}
}

// IsBooked reports whether key holds a booking.
func (s *Service) IsBooked(key schedule.SlotKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.IsBooked(key)
}

// Status resolves a slot and its state for the given viewer.
func (s *Service) Status(date, clock string, f views.Filter) (SlotStatus, error) {
	slot, err := s.ResolveSlot(date, clock)
	if err != nil {
		return SlotStatus{}, err
	}
	s.mu.Lock()
	b, booked := s.ledger.Get(slot.Key)
	s.mu.Unlock()
	state := views.StateOf(b, booked, f)
	return SlotStatus{Slot: slot, Booked: booked, State: state, Colour: state.Colour()}, nil
}

// Grid returns the coloured slot grid.
func (s *Service) Grid(f views.Filter) views.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return views.BuildGrid(s.calendar, s.ledger, f)
}

// TherapistSchedule lists bookings for one department, or all when t is empty.
func (s *Service) TherapistSchedule(t therapy.Type) []views.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return views.TherapistSchedule(s.ledger, t)
}

// CustomerSchedule lists the bookings held by phone.
func (s *Service) CustomerSchedule(phone string) []views.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return views.CustomerSchedule(s.ledger, phone)
}

// Projection recomputes every view for f.
func (s *Service) Projection(f views.Filter) views.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return views.Project(s.calendar, s.ledger, f)
}

func (s *Service) exportable(t therapy.Type) []ledger.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == "" {
		return s.ledger.All()
	}
	return s.ledger.ForTherapy(t)
}

// ExportName is the file name used for an export of t taken at ts.
func ExportName(t therapy.Type, ts time.Time) string {
	subset := "all"
	if t != "" {
		subset = t.Slug()
	}
	return fmt.Sprintf("schedule-%s-%s.csv", subset, ts.UTC().Format("20060102T150405Z"))
}

// ExportName names an export of t taken now by the service clock.
func (s *Service) ExportName(t therapy.Type) string {
	return ExportName(t, s.now())
}

// WriteCSV streams the therapist-filtered bookings as CSV.
func (s *Service) WriteCSV(w io.Writer, t therapy.Type) error {
	return export.WriteCSV(w, s.exportable(t))
}

// Export writes the therapist-filtered bookings to sink and returns the
// location reported by the sink. Sink failures come back as *export.IOError.
func (s *Service) Export(ctx context.Context, t therapy.Type, sink export.Sink) (string, error) {
	ctx, span := tracer.Start(ctx, "scheduler.export", trace.WithAttributes(
		attribute.String("rehab.therapy", t.String()),
	))
	defer span.End()

	bookings := s.exportable(t)
	data, err := export.Encode(bookings)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	name := s.ExportName(t)
	location, err := sink.Put(ctx, name, export.ContentType, data)
	s.metrics.ObserveExport(sinkLabel(sink), outcome(err))
	if err != nil {
		span.RecordError(err)
		s.logger.Error("schedule export failed", "name", name, "error", err)
		return "", err
	}

	span.SetAttributes(attribute.Int("rehab.export.rows", len(bookings)))
	s.logger.Info("schedule exported", "location", location, "rows", len(bookings))
	return location, nil
}

func sinkLabel(sink export.Sink) string {
	switch sink.(type) {
	case *export.FileSink:
		return "file"
	case *export.S3Sink:
		return "s3"
	default:
		return "other"
	}
}

func outcome(err error) string {
	var (
		vErr  *ValidationError
		ioErr *export.IOError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &vErr):
		return "invalid"
	case errors.Is(err, ErrUnknownSlot):
		return "unknown_slot"
	case errors.Is(err, ledger.ErrSlotTaken):
		return "conflict"
	case errors.Is(err, ledger.ErrNotBooked):
		return "not_booked"
	case errors.Is(err, ledger.ErrPhoneMismatch):
		return "phone_mismatch"
	case errors.As(err, &ioErr):
		return "io_error"
	default:
		return "error"
	}
}
