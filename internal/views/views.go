// Package views derives read-only projections of the booking ledger for
// display: the slot grid, the therapist schedule and the customer schedule.
// Projections are recomputed in full from the ledger on demand.
package views

import (
	"time"

	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/internal/schedule"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
)

// SlotState is the display state of a single slot.
type SlotState string

const (
	StateFree      SlotState = "free"
	StateOccupied  SlotState = "occupied"
	StateByTherapy SlotState = "by_therapy"
	StateOwn       SlotState = "own"
)

var stateColours = map[SlotState]string{
	StateFree:      "lightgreen",
	StateOccupied:  "red",
	StateByTherapy: "purple",
	StateOwn:       "yellow",
}

// Colour returns the grid colour for s.
func (s SlotState) Colour() string { return stateColours[s] }

// Filter is what the viewer has selected: a customer phone and/or a therapy
// department. Zero values mean "nobody" and "all departments".
type Filter struct {
	Phone   string       `json:"phone,omitempty"`
	Therapy therapy.Type `json:"therapy,omitempty"`
}

// Reader is the read side of the ledger the projections need.
type Reader interface {
	Get(key schedule.SlotKey) (ledger.Booking, bool)
	All() []ledger.Booking
	ForPhone(phone string) []ledger.Booking
	ForTherapy(t therapy.Type) []ledger.Booking
}

// StateOf resolves a slot's state. The viewer's own bookings win over the
// therapy highlight, which wins over plain occupancy.
func StateOf(b ledger.Booking, booked bool, f Filter) SlotState {
	switch {
	case !booked:
		return StateFree
	case f.Phone != "" && b.Phone == f.Phone:
		return StateOwn
	case f.Therapy != "" && b.Therapy == f.Therapy:
		return StateByTherapy
	default:
		return StateOccupied
	}
}

// Cell is one slot in the grid.
type Cell struct {
	Key    schedule.SlotKey `json:"key"`
	Start  schedule.Clock   `json:"start"`
	End    schedule.Clock   `json:"end"`
	State  SlotState        `json:"state"`
	Colour string           `json:"colour"`
}

// Column is one day of the grid.
type Column struct {
	Date    schedule.Date `json:"date"`
	Heading string        `json:"heading"`
	Closed  bool          `json:"closed"`
	Cells   []Cell        `json:"cells"`
}

// Grid is the full slot-status view.
type Grid struct {
	Filter  Filter   `json:"filter"`
	Columns []Column `json:"columns"`
}

// BuildGrid colours every calendar slot according to the ledger and filter.
func BuildGrid(cal *schedule.Calendar, r Reader, f Filter) Grid {
	days := cal.Days()
	grid := Grid{Filter: f, Columns: make([]Column, 0, len(days))}
	for _, day := range days {
		col := Column{
			Date:    day.Date,
			Heading: heading(day.Date),
			Closed:  day.Closed,
			Cells:   make([]Cell, 0, len(day.Slots)),
		}
		for _, s := range day.Slots {
			b, booked := r.Get(s.Key)
			state := StateOf(b, booked, f)
			col.Cells = append(col.Cells, Cell{
				Key:    s.Key,
				Start:  s.Start(),
				End:    s.End,
				State:  state,
				Colour: state.Colour(),
			})
		}
		grid.Columns = append(grid.Columns, col)
	}
	return grid
}

// Counts tallies cells per state.
func (g Grid) Counts() map[SlotState]int {
	out := make(map[SlotState]int, len(stateColours))
	for _, col := range g.Columns {
		for _, c := range col.Cells {
			out[c.State]++
		}
	}
	return out
}

func heading(d schedule.Date) string {
	return d.In(time.UTC).Format("Mon 02 Jan")
}
