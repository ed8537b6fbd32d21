package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"Roll Number", "Student", "Status"},
		Rows: []map[string]string{
			{"Roll Number": "R-01", "Student": "Asha Verma", "Status": "present"},
			{"Roll Number": "R-02", "Student": "Vikram Rao", "Status": "absent"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Roll Number,Student,Status\nR-01,Asha Verma,present\nR-02,Vikram Rao,absent\n", string(payload))
}

func TestCSVExporterMissingCellsAreEmpty(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"A", "B"},
		Rows:    []map[string]string{{"A": "1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "A,B\n1,\n", string(payload))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestReceiptPDFExporterRender(t *testing.T) {
	exporter := NewReceiptPDFExporter()

	payload, err := exporter.Render(ReceiptData{
		ReceiptNumber: "RCPT-26080001",
		InstituteName: "EduPoint Classes",
		StudentName:   "Asha Verma",
		RollNumber:    "R-01",
		BatchName:     "Physics Evening",
		Subject:       "Physics",
		Month:         "August",
		Year:          2026,
		Amount:        1500,
		PaymentMethod: "upi",
		PaidDate:      "2026-08-15",
	})
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
