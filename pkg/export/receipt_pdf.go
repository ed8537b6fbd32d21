package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptData carries the denormalized fields printed on a fee receipt.
type ReceiptData struct {
	ReceiptNumber string
	InstituteName string
	InstituteAddr string
	InstitutePhone string
	StudentName   string
	RollNumber    string
	ParentName    string
	BatchName     string
	Subject       string
	Month         string
	Year          int
	Amount        float64
	PaymentMethod string
	TransactionID string
	PaidDate      string
}

// ReceiptPDFExporter renders a fee receipt into a printable PDF.
type ReceiptPDFExporter struct{}

// NewReceiptPDFExporter constructs a receipt PDF exporter.
func NewReceiptPDFExporter() *ReceiptPDFExporter {
	return &ReceiptPDFExporter{}
}

// Render creates an A5 receipt document.
func (e *ReceiptPDFExporter) Render(data ReceiptData) ([]byte, error) {
	if data.ReceiptNumber == "" {
		return nil, fmt.Errorf("receipt number required")
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 9, data.InstituteName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if data.InstituteAddr != "" {
		pdf.CellFormat(0, 5, data.InstituteAddr, "", 1, "C", false, 0, "")
	}
	if data.InstitutePhone != "" {
		pdf.CellFormat(0, 5, "Phone: "+data.InstitutePhone, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "FEE RECEIPT", "T", 1, "C", false, 0, "")
	pdf.Ln(2)

	rows := [][2]string{
		{"Receipt No.", data.ReceiptNumber},
		{"Date", data.PaidDate},
		{"Student", data.StudentName},
		{"Roll No.", data.RollNumber},
		{"Parent/Guardian", data.ParentName},
		{"Batch", fmt.Sprintf("%s (%s)", data.BatchName, data.Subject)},
		{"Period", fmt.Sprintf("%s %d", data.Month, data.Year)},
		{"Payment Method", data.PaymentMethod},
	}
	if data.TransactionID != "" {
		rows = append(rows, [2]string{"Transaction ID", data.TransactionID})
	}

	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(42, 7, row[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 7, row[1], "", 1, "", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(42, 9, "Amount Paid", "T", 0, "", false, 0, "")
	pdf.CellFormat(0, 9, fmt.Sprintf("%.2f", data.Amount), "T", 1, "", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, "This is a system generated receipt.", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
