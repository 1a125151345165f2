// Package therapy holds the closed set of therapy categories the clinic offers.
package therapy

import (
	"fmt"
	"strings"
)

// Type is a therapy category. The zero value means "no therapy selected".
type Type string

const (
	Physical     Type = "PHYSICAL THERAPY"
	Occupational Type = "OCCUPATIONAL THERAPY"
	Speech       Type = "SPEECH AND LANGUAGE THERAPY"
	Behavioral   Type = "BEHAVIORAL THERAPY"
	Aquatic      Type = "AQUATIC THERAPY"
)

var all = []Type{Physical, Occupational, Speech, Behavioral, Aquatic}

// Per-session prices in minor currency units (paise).
var sessionPriceCents = map[Type]int64{
	Physical:     10000,
	Occupational: 20000,
	Speech:       30000,
	Behavioral:   40000,
	Aquatic:      50000,
}

// All returns the therapy categories in display order.
func All() []Type {
	out := make([]Type, len(all))
	copy(out, all)
	return out
}

// Valid reports whether t is one of the known categories.
func (t Type) Valid() bool {
	_, ok := sessionPriceCents[t]
	return ok
}

func (t Type) String() string { return string(t) }

// Slug is a lowercase, dash-separated form used in file names and URLs.
func (t Type) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(t)), " ", "-")
}

// Parse resolves user input to a category. Matching ignores case and surrounding
// whitespace and also accepts the slug form.
func Parse(s string) (Type, error) {
	normalized := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, "-", " ")))
	if normalized == "" {
		return "", fmt.Errorf("therapy: empty category")
	}
	t := Type(normalized)
	if !t.Valid() {
		return "", fmt.Errorf("therapy: unknown category %q", s)
	}
	return t, nil
}

// SessionPriceCents returns the fixed per-session price of t.
func SessionPriceCents(t Type) (int64, bool) {
	p, ok := sessionPriceCents[t]
	return p, ok
}
