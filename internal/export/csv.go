// Package export writes booking listings as CSV and hands them to a Sink.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/wolfman30/rehab-scheduler/internal/ledger"
)

// ContentType is the media type of the exported document.
const ContentType = "text/csv"

// Header is the first CSV record.
var Header = []string{"Date", "Time", "Therapy Type", "Customer Mobile"}

// Rows converts bookings into CSV records, splitting each slot key back
// into its date and start time.
func Rows(bookings []ledger.Booking) [][]string {
	rows := make([][]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, []string{
			b.Key.Date.String(),
			b.Key.Start.String(),
			b.Therapy.String(),
			b.Phone,
		})
	}
	return rows
}

// WriteCSV writes the header followed by one record per booking.
func WriteCSV(w io.Writer, bookings []ledger.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	if err := cw.WriteAll(Rows(bookings)); err != nil {
		return fmt.Errorf("export: write rows: %w", err)
	}
	return nil
}

// Encode returns the CSV document for bookings.
func Encode(bookings []ledger.Booking) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, bookings); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
