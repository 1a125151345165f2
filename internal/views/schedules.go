package views

import (
	"encoding/json"
	"fmt"

	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/internal/schedule"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
)

// LineKind selects how a schedule line renders.
type LineKind string

const (
	// LineBrief shows date and time only.
	LineBrief LineKind = "brief"
	// LineDetailed adds therapy and phone.
	LineDetailed LineKind = "detailed"
	// LineCustomer adds therapy.
	LineCustomer LineKind = "customer"
)

// Line is one entry of a schedule listing.
type Line struct {
	Kind    LineKind       `json:"kind"`
	Date    schedule.Date  `json:"date"`
	Time    schedule.Clock `json:"time"`
	Therapy therapy.Type   `json:"therapy,omitempty"`
	Phone   string         `json:"phone,omitempty"`
}

func newLine(kind LineKind, b ledger.Booking) Line {
	l := Line{Kind: kind, Date: b.Key.Date, Time: b.Key.Start}
	switch kind {
	case LineDetailed:
		l.Therapy = b.Therapy
		l.Phone = b.Phone
	case LineCustomer:
		l.Therapy = b.Therapy
	}
	return l
}

// Label renders the line as shown in the schedule lists.
func (l Line) Label() string {
	switch l.Kind {
	case LineDetailed:
		return fmt.Sprintf("%s at %s (%s) - %s", l.Date, l.Time, l.Therapy, l.Phone)
	case LineCustomer:
		return fmt.Sprintf("%s at %s | %s", l.Date, l.Time, l.Therapy)
	default:
		return fmt.Sprintf("%s at %s", l.Date, l.Time)
	}
}

// MarshalJSON includes the rendered label.
func (l Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return json.Marshal(struct {
		plain
		Label string `json:"label"`
	}{plain(l), l.Label()})
}

// TherapistSchedule lists the bookings a therapist sees. With a department
// selected only that therapy's bookings are listed, date and time only;
// with none selected every booking is listed in full.
func TherapistSchedule(r Reader, t therapy.Type) []Line {
	if t == "" {
		return lines(LineDetailed, r.All())
	}
	return lines(LineBrief, r.ForTherapy(t))
}

// CustomerSchedule lists the bookings held by phone in ledger order.
func CustomerSchedule(r Reader, phone string) []Line {
	if phone == "" {
		return []Line{}
	}
	return lines(LineCustomer, r.ForPhone(phone))
}

func lines(kind LineKind, bookings []ledger.Booking) []Line {
	out := make([]Line, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newLine(kind, b))
	}
	return out
}

// Projection bundles every view for one filter.
type Projection struct {
	Grid      Grid   `json:"grid"`
	Therapist []Line `json:"therapist"`
	Customer  []Line `json:"customer"`
}

// Project recomputes all views from scratch.
func Project(cal *schedule.Calendar, r Reader, f Filter) Projection {
	return Projection{
		Grid:      BuildGrid(cal, r, f),
		Therapist: TherapistSchedule(r, f.Therapy),
		Customer:  CustomerSchedule(r, f.Phone),
	}
}
