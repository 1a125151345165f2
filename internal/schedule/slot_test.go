package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"09:00", NewClock(9, 0), false},
		{"00:05", 5, false},
		{"23:59", NewClock(23, 59), false},
		{"24:00", endOfDay, false},
		{"24:01", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"0900", 0, true},
		{"+9:00", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestClockAddTruncatesToMinutes(t *testing.T) {
	c := NewClock(9, 0).Add(25*time.Minute + 30*time.Second)
	assert.Equal(t, "09:25", c.String())
}

func TestDateArithmetic(t *testing.T) {
	d := Date{Year: 2024, Month: time.February, Day: 28}
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2023-12-31", monday.AddDays(-1).String())
	assert.Equal(t, time.Monday, monday.Weekday())

	assert.Equal(t, -1, monday.Compare(d))
	assert.Equal(t, 1, d.Compare(monday))
	assert.Equal(t, 0, d.Compare(d))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, monday, d)

	_, err = ParseDate("01/01/2024")
	assert.Error(t, err)
	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestSlotKeyRoundTrip(t *testing.T) {
	key, err := ParseSlotKey("2024-01-01_09:00")
	require.NoError(t, err)
	assert.Equal(t, SlotKey{Date: monday, Start: NewClock(9, 0)}, key)
	assert.Equal(t, "2024-01-01_09:00", key.String())

	_, err = ParseSlotKey("2024-01-01 09:00")
	assert.Error(t, err)
	_, err = ParseSlotKey("2024-01-01_9am")
	assert.Error(t, err)
}

func TestSlotKeyOrdering(t *testing.T) {
	a := SlotKey{Date: monday, Start: NewClock(9, 0)}
	b := SlotKey{Date: monday, Start: NewClock(9, 25)}
	c := SlotKey{Date: monday.AddDays(1), Start: NewClock(9, 0)}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(c))
	assert.Equal(t, 1, c.Compare(a))
	assert.Equal(t, 0, a.Compare(a))

	// Keys are usable as map keys with value equality.
	m := map[SlotKey]int{a: 1}
	assert.Equal(t, 1, m[SlotKey{Date: Date{2024, time.January, 1}, Start: 540}])
}

func TestSlotJSON(t *testing.T) {
	s := Slot{Key: SlotKey{Date: monday, Start: NewClock(9, 0)}, End: NewClock(9, 20)}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"2024-01-01_09:00","end":"09:20"}`, string(b))

	var back Slot
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)
}

func TestClockOn(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := NewClock(13, 5).On(monday, loc)
	assert.True(t, time.Date(2024, time.January, 1, 13, 5, 0, 0, loc).Equal(at))
}
