package invoices

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Columns are the table headings, also used as the CSV header.
var Columns = []string{
	"Invoice No.", "Invoice Date", "Due Date", "Customer ID", "First Name", "Last Name",
	"Service", "Sessions", "Per Session", "Total", "Mobile No.",
}

// WriteCSV writes the heading row and one record per invoice.
func WriteCSV(w io.Writer, invoices []Invoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("invoices: write csv header: %w", err)
	}
	for _, inv := range invoices {
		rec := []string{
			strconv.FormatInt(inv.InvoiceNo, 10),
			inv.IssuedAt.Format(TimestampLayout),
			inv.DueAt.Format(TimestampLayout),
			strconv.FormatInt(inv.CustomerID, 10),
			inv.FirstName,
			inv.LastName,
			inv.Service.String(),
			strconv.Itoa(inv.Sessions),
			fmt.Sprintf("%d.%02d", inv.PerSessionCents/100, inv.PerSessionCents%100),
			fmt.Sprintf("%d.%02d", inv.TotalCents/100, inv.TotalCents%100),
			inv.Mobile,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("invoices: write csv row %d: %w", inv.InvoiceNo, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("invoices: flush csv: %w", err)
	}
	return nil
}

// Preview renders the plain-text invoice summary.
func Preview(inv Invoice) string {
	mobile := inv.Mobile
	if mobile == "" {
		mobile = "N/A"
	}
	lines := []string{
		fmt.Sprintf("Invoice No: %d", inv.InvoiceNo),
		"Invoice Date: " + inv.IssuedAt.Format(TimestampLayout),
		"Due Date: " + inv.DueAt.Format(TimestampLayout),
		fmt.Sprintf("Customer ID: %d", inv.CustomerID),
		"Customer Name: " + inv.CustomerName(),
		"Service: " + inv.Service.String(),
		fmt.Sprintf("Sessions: %d", inv.Sessions),
		"Cost Per Session: ₹ " + FormatAmount(inv.PerSessionCents),
		"Total Amount: ₹ " + FormatAmount(inv.TotalCents),
		"Customer Mobile: " + mobile,
	}
	return strings.Join(lines, "\n")
}

// PDFName is the suggested download name for an invoice PDF.
func PDFName(inv Invoice) string {
	return fmt.Sprintf("Invoice_%d_%s.pdf", inv.InvoiceNo, strings.ReplaceAll(inv.FirstName, " ", "_"))
}

// WritePDF renders an A4 invoice headed with the clinic name. The core PDF
// fonts have no rupee glyph, so amounts are prefixed with "Rs.".
func WritePDF(w io.Writer, inv Invoice, clinic string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %d", inv.InvoiceNo), true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, clinic, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	}
	pairs := func(rows [][2]string) {
		for _, row := range rows {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(50, 7, row[0], "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	mobile := inv.Mobile
	if mobile == "" {
		mobile = "N/A"
	}
	perSession := "Rs. " + FormatAmount(inv.PerSessionCents)
	total := "Rs. " + FormatAmount(inv.TotalCents)

	section("Invoice Details")
	pairs([][2]string{
		{"Invoice No:", strconv.FormatInt(inv.InvoiceNo, 10)},
		{"Invoice Date:", inv.IssuedAt.Format(TimestampLayout)},
		{"Due Date:", inv.DueAt.Format(TimestampLayout)},
	})

	section("Customer Details:")
	pairs([][2]string{
		{"Customer ID:", strconv.FormatInt(inv.CustomerID, 10)},
		{"Customer Name:", inv.CustomerName()},
		{"Mobile No.:", mobile},
	})

	section("Service Details:")
	widths := []float64{64, 30, 38, 38}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(211, 211, 211)
	for i, h := range []string{"Service Name", "Sessions", "Per Session Cost", "Total Amount"} {
		pdf.CellFormat(widths[i], 9, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 11)
	for i, v := range []string{inv.Service.String(), strconv.Itoa(inv.Sessions), perSession, total} {
		pdf.CellFormat(widths[i], 9, v, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, "Grand Total: "+total, "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("invoices: render pdf %d: %w", inv.InvoiceNo, err)
	}
	return nil
}
