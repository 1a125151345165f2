package schedule

import (
	"fmt"
	"strings"
	"time"
)

// SlotKey identifies a slot by its date and start time. It is comparable and
// can be used directly as a map key.
type SlotKey struct {
	Date  Date
	Start Clock
}

// NewSlotKey parses a date ("2006-01-02") and a start time ("HH:MM").
func NewSlotKey(date, start string) (SlotKey, error) {
	d, err := ParseDate(strings.TrimSpace(date))
	if err != nil {
		return SlotKey{}, err
	}
	c, err := ParseClock(strings.TrimSpace(start))
	if err != nil {
		return SlotKey{}, err
	}
	return SlotKey{Date: d, Start: c}, nil
}

// ParseSlotKey parses the "2006-01-02_15:04" form produced by String.
func ParseSlotKey(s string) (SlotKey, error) {
	date, start, ok := strings.Cut(s, "_")
	if !ok {
		return SlotKey{}, fmt.Errorf("schedule: invalid slot key %q", s)
	}
	return NewSlotKey(date, start)
}

func (k SlotKey) String() string {
	return k.Date.String() + "_" + k.Start.String()
}

// Compare orders keys by date, then start time.
func (k SlotKey) Compare(o SlotKey) int {
	if c := k.Date.Compare(o.Date); c != 0 {
		return c
	}
	return cmpInt(int(k.Start), int(o.Start))
}

func (k SlotKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *SlotKey) UnmarshalText(b []byte) error {
	parsed, err := ParseSlotKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Slot is a bookable interval [Start, End) on a date.
type Slot struct {
	Key SlotKey `json:"key"`
	End Clock   `json:"end"`
}

// Date returns the slot's calendar date.
func (s Slot) Date() Date { return s.Key.Date }

// Start returns the slot's start time.
func (s Slot) Start() Clock { return s.Key.Start }

// Duration returns the slot length.
func (s Slot) Duration() time.Duration {
	return time.Duration(s.End-s.Key.Start) * time.Minute
}

// Overlaps reports whether s and o share any instant.
func (s Slot) Overlaps(o Slot) bool {
	if s.Key.Date != o.Key.Date {
		return false
	}
	return s.Key.Start < o.End && o.Key.Start < s.End
}

// Label renders "HH:MM-HH:MM".
func (s Slot) Label() string {
	return s.Key.Start.String() + "-" + s.End.String()
}
