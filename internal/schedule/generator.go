// Package schedule generates the clinic's bookable appointment slots.
//
// Generation is pure: the same dates and DayConfig always produce the same
// slots, and a configuration that leaves no room for an appointment simply
// yields an empty day.
package schedule

import (
	"slices"
	"time"
)

// DayConfig describes the working day the generator lays slots out on.
type DayConfig struct {
	DayStart    Clock
	DayEnd      Clock
	LunchStart  Clock
	LunchEnd    Clock
	Appointment time.Duration
	Break       time.Duration
	ClosedDays  []time.Weekday
}

// DefaultDayConfig is the clinic's standard day: 09:00-17:00 with lunch at
// 12:30-13:00, 20 minute appointments, 5 minute breaks, closed on Sundays.
func DefaultDayConfig() DayConfig {
	return DayConfig{
		DayStart:    NewClock(9, 0),
		DayEnd:      NewClock(17, 0),
		LunchStart:  NewClock(12, 30),
		LunchEnd:    NewClock(13, 0),
		Appointment: 20 * time.Minute,
		Break:       5 * time.Minute,
		ClosedDays:  []time.Weekday{time.Sunday},
	}
}

// IsClosed reports whether the clinic is closed on wd.
func (c DayConfig) IsClosed(wd time.Weekday) bool {
	return slices.Contains(c.ClosedDays, wd)
}

func (c DayConfig) hasLunch() bool {
	return c.LunchStart < c.LunchEnd
}

// SlotsForDay lays out the slots of a single date in start order.
func SlotsForDay(date Date, cfg DayConfig) []Slot {
	if cfg.IsClosed(date.Weekday()) {
		return nil
	}
	appt := Clock(cfg.Appointment / time.Minute)
	if appt <= 0 {
		return nil
	}
	brk := Clock(cfg.Break / time.Minute)
	if brk < 0 {
		brk = 0
	}

	var slots []Slot
	cursor := cfg.DayStart
	for cursor+appt <= cfg.DayEnd {
		// A slot may not run into lunch; resume when lunch is over.
		if cfg.hasLunch() && cursor < cfg.LunchEnd && cursor+appt > cfg.LunchStart {
			cursor = cfg.LunchEnd
			continue
		}
		slots = append(slots, Slot{
			Key: SlotKey{Date: date, Start: cursor},
			End: cursor + appt,
		})
		cursor += appt + brk
	}
	return slots
}

// Day is one calendar column: a date and its slots.
type Day struct {
	Date   Date   `json:"date"`
	Closed bool   `json:"closed"`
	Slots  []Slot `json:"slots"`
}

// Calendar is the immutable output of Generate.
type Calendar struct {
	days  []Day
	index map[SlotKey]Slot
	count int
}

// Generate produces the calendar for windowDays consecutive dates starting at from.
func Generate(from Date, windowDays int, cfg DayConfig) *Calendar {
	if windowDays < 0 {
		windowDays = 0
	}
	cal := &Calendar{
		days:  make([]Day, 0, windowDays),
		index: make(map[SlotKey]Slot),
	}
	for i := 0; i < windowDays; i++ {
		date := from.AddDays(i)
		day := Day{Date: date, Closed: cfg.IsClosed(date.Weekday())}
		day.Slots = SlotsForDay(date, cfg)
		for _, s := range day.Slots {
			cal.index[s.Key] = s
		}
		cal.count += len(day.Slots)
		cal.days = append(cal.days, day)
	}
	return cal
}

// Days returns a copy of the calendar days in date order.
func (c *Calendar) Days() []Day {
	out := slices.Clone(c.days)
	for i := range out {
		out[i].Slots = slices.Clone(out[i].Slots)
	}
	return out
}

// Slots returns every slot in (date, start) order.
func (c *Calendar) Slots() []Slot {
	out := make([]Slot, 0, c.count)
	for _, d := range c.days {
		out = append(out, d.Slots...)
	}
	return out
}

// Lookup returns the slot identified by key.
func (c *Calendar) Lookup(key SlotKey) (Slot, bool) {
	s, ok := c.index[key]
	return s, ok
}

// Contains reports whether key names a generated slot.
func (c *Calendar) Contains(key SlotKey) bool {
	_, ok := c.index[key]
	return ok
}

// Len returns the number of slots.
func (c *Calendar) Len() int { return c.count }

// From returns the first date of the window; zero when the window is empty.
func (c *Calendar) From() Date {
	if len(c.days) == 0 {
		return Date{}
	}
	return c.days[0].Date
}
