// Package ledger records which appointment slots are booked and by whom.
//
// A Ledger is an owned value: create one with New and pass it to whatever
// needs it. It is not safe for concurrent use; the owner serialises access.
// Every successful mutation returns a Change describing what happened so the
// caller can recompute its views.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/wolfman30/rehab-scheduler/internal/schedule"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
)

var (
	// ErrSlotTaken is returned when booking a slot that already holds a booking.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrNotBooked is returned when cancelling a slot that holds no booking.
	ErrNotBooked = errors.New("slot is not booked")

	// ErrPhoneMismatch is returned when the cancelling phone differs from the booking's.
	ErrPhoneMismatch = errors.New("mobile number does not match the booking")
)

// Booking is a confirmed appointment in one slot.
type Booking struct {
	Key      schedule.SlotKey `json:"slot"`
	Phone    string           `json:"phone"`
	Therapy  therapy.Type     `json:"therapy"`
	BookedAt time.Time        `json:"booked_at"`
}

// ChangeKind names a slot transition.
type ChangeKind string

const (
	ChangeBooked    ChangeKind = "booked"
	ChangeCancelled ChangeKind = "cancelled"
)

// Change is the signal returned by every successful mutation.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Booking Booking    `json:"booking"`
	At      time.Time  `json:"at"`
}

// Ledger maps slot keys to bookings. Listings follow insertion order.
type Ledger struct {
	entries map[schedule.SlotKey]Booking
	order   []schedule.SlotKey
	now     func() time.Time
}

// New returns an empty ledger.
func New() *Ledger {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty ledger stamping bookings with now().
func NewWithClock(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		entries: make(map[schedule.SlotKey]Booking),
		now:     now,
	}
}

// Book records a booking for key. It fails with ErrSlotTaken, leaving the
// ledger unchanged, if key is already booked. Phone and therapy are stored
// as given; validating them is the caller's job.
func (l *Ledger) Book(key schedule.SlotKey, phone string, t therapy.Type) (Change, error) {
	if _, ok := l.entries[key]; ok {
		return Change{}, fmt.Errorf("ledger: book %s: %w", key, ErrSlotTaken)
	}
	at := l.now()
	b := Booking{Key: key, Phone: phone, Therapy: t, BookedAt: at}
	l.entries[key] = b
	l.order = append(l.order, key)
	return Change{Kind: ChangeBooked, Booking: b, At: at}, nil
}

// Cancel removes the booking in key if phone exactly matches the booking's
// phone. On ErrNotBooked or ErrPhoneMismatch the ledger is unchanged.
func (l *Ledger) Cancel(key schedule.SlotKey, phone string) (Change, error) {
	b, ok := l.entries[key]
	if !ok {
		return Change{}, fmt.Errorf("ledger: cancel %s: %w", key, ErrNotBooked)
	}
	if b.Phone != phone {
		return Change{}, fmt.Errorf("ledger: cancel %s: %w", key, ErrPhoneMismatch)
	}
	delete(l.entries, key)
	if i := slices.Index(l.order, key); i >= 0 {
		l.order = slices.Delete(l.order, i, i+1)
	}
	return Change{Kind: ChangeCancelled, Booking: b, At: l.now()}, nil
}

// IsBooked reports whether key holds a booking.
func (l *Ledger) IsBooked(key schedule.SlotKey) bool {
	_, ok := l.entries[key]
	return ok
}

// Get returns the booking in key.
func (l *Ledger) Get(key schedule.SlotKey) (Booking, bool) {
	b, ok := l.entries[key]
	return b, ok
}

// Len returns the number of bookings.
func (l *Ledger) Len() int { return len(l.entries) }

// All returns every booking in ledger order.
func (l *Ledger) All() []Booking {
	return l.filter(func(Booking) bool { return true })
}

// ForPhone returns the bookings held by phone (exact match) in ledger order.
func (l *Ledger) ForPhone(phone string) []Booking {
	return l.filter(func(b Booking) bool { return b.Phone == phone })
}

// ForTherapy returns the bookings of therapy t in ledger order.
func (l *Ledger) ForTherapy(t therapy.Type) []Booking {
	return l.filter(func(b Booking) bool { return b.Therapy == t })
}

func (l *Ledger) filter(keep func(Booking) bool) []Booking {
	out := make([]Booking, 0, len(l.order))
	for _, key := range l.order {
		if b := l.entries[key]; keep(b) {
			out = append(out, b)
		}
	}
	return out
}
