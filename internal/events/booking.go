package events

import (
	"time"

	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/internal/schedule"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
)

// EventTypeBookingChanged names BookingChangedV1 on the wire.
const EventTypeBookingChanged = "scheduler.booking_changed.v1"

// BookingChangedV1 announces that a slot was booked or freed. It carries no
// phone number, since it is broadcast to every connected viewer.
type BookingChangedV1 struct {
	Kind       ledger.ChangeKind `json:"kind"`
	SlotKey    schedule.SlotKey  `json:"slot_key"`
	Date       schedule.Date     `json:"date"`
	Time       schedule.Clock    `json:"time"`
	Therapy    therapy.Type      `json:"therapy"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (BookingChangedV1) EventType() string { return EventTypeBookingChanged }

// BookingChangedFrom builds the event for a ledger change.
func BookingChangedFrom(c ledger.Change) BookingChangedV1 {
	return BookingChangedV1{
		Kind:       c.Kind,
		SlotKey:    c.Booking.Key,
		Date:       c.Booking.Key.Date,
		Time:       c.Booking.Key.Start,
		Therapy:    c.Booking.Therapy,
		OccurredAt: c.At.UTC(),
	}
}
