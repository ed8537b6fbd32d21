package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComposeAbsenceMessage(t *testing.T) {
	message := ComposeAbsenceMessage(AbsenceAlert{
		StudentName: "Asha Verma",
		ParentName:  "Ravi Verma",
		BatchName:   "Physics Evening",
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
	}, "EduPoint Classes")

	assert.Equal(t, "Dear Ravi Verma, your child Asha Verma was marked absent in Physics Evening on 10 Aug 2026. - EduPoint Classes", message)
}

func TestComposeReceiptEmail(t *testing.T) {
	receipt := ReceiptEmail{
		StudentName:   "Asha Verma",
		ParentName:    "Ravi Verma",
		ReceiptNumber: "RCPT-26080001",
		BatchName:     "Physics Evening",
		Amount:        1500,
		Month:         "August",
		Year:          2026,
	}

	assert.Equal(t, "Fee Receipt RCPT-26080001 - August 2026", ComposeReceiptSubject(receipt))

	body := ComposeReceiptBody(receipt, "EduPoint Classes")
	assert.Contains(t, body, "Dear Ravi Verma")
	assert.Contains(t, body, "1500.00")
	assert.Contains(t, body, "RCPT-26080001")
	assert.Contains(t, body, "EduPoint Classes")
}

func TestComposeMonthlyReportEmail(t *testing.T) {
	report := MonthlyReportEmail{
		StudentName:  "Asha Verma",
		ParentName:   "Ravi Verma",
		Month:        time.August,
		Year:         2026,
		Attended:     18,
		TotalClasses: 20,
		Percentage:   90,
	}

	assert.Equal(t, "Attendance Report August 2026 - Asha Verma", ComposeMonthlyReportSubject(report))

	body := ComposeMonthlyReportBody(report, "EduPoint Classes")
	assert.Contains(t, body, "attended 18 of 20 classes")
	assert.Contains(t, body, "(90%)")
}

func TestHTMLBody(t *testing.T) {
	out := HTMLBody("Dear Ravi Verma,\nAmount: <1500 & more>")

	assert.True(t, strings.HasPrefix(out, "<html><body><p>"))
	assert.Contains(t, out, "Dear Ravi Verma,<br>")
	assert.Contains(t, out, "&lt;1500 &amp; more&gt;")
	assert.NotContains(t, out, "<1500")
}
