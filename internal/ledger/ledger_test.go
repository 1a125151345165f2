package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/rehab-scheduler/internal/schedule"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
)

var fixedNow = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

func newTestLedger() *Ledger {
	return NewWithClock(func() time.Time { return fixedNow })
}

func mustKey(t *testing.T, s string) schedule.SlotKey {
	t.Helper()
	k, err := schedule.ParseSlotKey(s)
	require.NoError(t, err)
	return k
}

func TestBookThenIsBooked(t *testing.T) {
	l := newTestLedger()
	key := mustKey(t, "2024-01-01_09:00")

	assert.False(t, l.IsBooked(key))
	change, err := l.Book(key, "555-1234", therapy.Physical)
	require.NoError(t, err)

	assert.True(t, l.IsBooked(key))
	assert.Equal(t, ChangeBooked, change.Kind)
	assert.Equal(t, Booking{Key: key, Phone: "555-1234", Therapy: therapy.Physical, BookedAt: fixedNow}, change.Booking)
}

func TestBookOccupiedSlotFailsAndKeepsFirst(t *testing.T) {
	l := newTestLedger()
	key := mustKey(t, "2024-01-01_09:00")

	_, err := l.Book(key, "555-1234", therapy.Physical)
	require.NoError(t, err)

	change, err := l.Book(key, "555-9999", therapy.Aquatic)
	require.ErrorIs(t, err, ErrSlotTaken)
	assert.Zero(t, change)

	b, ok := l.Get(key)
	require.True(t, ok)
	assert.Equal(t, "555-1234", b.Phone)
	assert.Equal(t, therapy.Physical, b.Therapy)
	assert.Equal(t, 1, l.Len())
}

func TestCancelWithWrongPhoneLeavesBooking(t *testing.T) {
	l := newTestLedger()
	key := mustKey(t, "2024-01-01_09:00")
	_, err := l.Book(key, "555-1234", therapy.Physical)
	require.NoError(t, err)

	for _, phone := range []string{"555-4321", "", " 555-1234", "555-1234 "} {
		_, err := l.Cancel(key, phone)
		assert.ErrorIs(t, err, ErrPhoneMismatch, phone)
		assert.True(t, l.IsBooked(key))
	}
}

func TestCancelMatchesCaseSensitively(t *testing.T) {
	l := newTestLedger()
	key := mustKey(t, "2024-01-01_09:00")
	_, err := l.Book(key, "abc", therapy.Speech)
	require.NoError(t, err)

	_, err = l.Cancel(key, "ABC")
	assert.ErrorIs(t, err, ErrPhoneMismatch)
	assert.True(t, l.IsBooked(key))
}

func TestBookCancelRoundTrip(t *testing.T) {
	l := newTestLedger()
	existing := mustKey(t, "2024-01-02_10:15")
	_, err := l.Book(existing, "111", therapy.Behavioral)
	require.NoError(t, err)
	before := l.All()

	key := mustKey(t, "2024-01-01_09:00")
	_, err = l.Book(key, "555-1234", therapy.Physical)
	require.NoError(t, err)

	change, err := l.Cancel(key, "555-1234")
	require.NoError(t, err)
	assert.Equal(t, ChangeCancelled, change.Kind)
	assert.Equal(t, "555-1234", change.Booking.Phone)

	assert.False(t, l.IsBooked(key))
	assert.Equal(t, before, l.All())
}

func TestCancelFreeSlot(t *testing.T) {
	l := newTestLedger()
	_, err := l.Cancel(mustKey(t, "2024-01-01_09:00"), "555-1234")
	assert.ErrorIs(t, err, ErrNotBooked)
}

func TestForPhoneReturnsSingleBooking(t *testing.T) {
	l := newTestLedger()
	key := mustKey(t, "2024-01-01_09:00")
	_, err := l.Book(key, "555-1234", therapy.Physical)
	require.NoError(t, err)
	_, err = l.Book(mustKey(t, "2024-01-01_09:25"), "555-0000", therapy.Physical)
	require.NoError(t, err)

	got := l.ForPhone("555-1234")
	require.Len(t, got, 1)
	assert.Equal(t, key, got[0].Key)
	assert.Equal(t, therapy.Physical, got[0].Therapy)
}

func TestListingsFollowInsertionOrder(t *testing.T) {
	l := newTestLedger()
	keys := []string{"2024-01-03_09:00", "2024-01-01_13:00", "2024-01-02_09:25", "2024-01-01_09:00"}
	therapies := []therapy.Type{therapy.Aquatic, therapy.Physical, therapy.Aquatic, therapy.Speech}
	for i, k := range keys {
		_, err := l.Book(mustKey(t, k), "555", therapies[i])
		require.NoError(t, err)
	}

	var got []string
	for _, b := range l.All() {
		got = append(got, b.Key.String())
	}
	assert.Equal(t, keys, got)

	aquatic := l.ForTherapy(therapy.Aquatic)
	require.Len(t, aquatic, 2)
	assert.Equal(t, "2024-01-03_09:00", aquatic[0].Key.String())
	assert.Equal(t, "2024-01-02_09:25", aquatic[1].Key.String())

	// Cancelling from the middle keeps the rest in order.
	_, err := l.Cancel(mustKey(t, "2024-01-01_13:00"), "555")
	require.NoError(t, err)
	got = got[:0]
	for _, b := range l.ForPhone("555") {
		got = append(got, b.Key.String())
	}
	assert.Equal(t, []string{"2024-01-03_09:00", "2024-01-02_09:25", "2024-01-01_09:00"}, got)
	assert.Empty(t, l.ForTherapy(therapy.Occupational))
}

func TestRebookAfterCancelAppendsAtEnd(t *testing.T) {
	l := newTestLedger()
	a, b := mustKey(t, "2024-01-01_09:00"), mustKey(t, "2024-01-01_09:25")
	_, _ = l.Book(a, "1", therapy.Physical)
	_, _ = l.Book(b, "2", therapy.Physical)
	_, err := l.Cancel(a, "1")
	require.NoError(t, err)
	_, err = l.Book(a, "3", therapy.Aquatic)
	require.NoError(t, err)

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, b, all[0].Key)
	assert.Equal(t, a, all[1].Key)
	assert.Equal(t, "3", all[1].Phone)
}
