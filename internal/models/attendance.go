package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLeave   AttendanceStatus = "leave"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLeave:
		return true
	default:
		return false
	}
}

// Attendance is one student's mark for one batch on one calendar day.
// At most one row exists per (student, batch, date); re-marks update the
// row in place and never reset NotificationSent.
type Attendance struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	BatchID          string           `db:"batch_id" json:"batch_id"`
	Date             time.Time        `db:"date" json:"date"`
	Status           AttendanceStatus `db:"status" json:"status"`
	MarkedBy         string           `db:"marked_by" json:"marked_by"`
	NotificationSent bool             `db:"notification_sent" json:"notification_sent"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceWithBatch joins a record with its batch display name for
// report grouping.
type AttendanceWithBatch struct {
	Attendance
	BatchName string `db:"batch_name" json:"batch_name"`
}

// BatchDayEntry is one roster row of a batch/date report. Recorded is
// false when no mark exists; such students are reported absent.
type BatchDayEntry struct {
	StudentID        string           `json:"student_id"`
	StudentName      string           `json:"student_name"`
	RollNumber       string           `json:"roll_number"`
	Status           AttendanceStatus `json:"status"`
	NotificationSent bool             `json:"notification_sent"`
	Recorded         bool             `json:"recorded"`
}

// BatchDayReport is the full batch/date attendance view.
type BatchDayReport struct {
	BatchID   string          `json:"batch_id"`
	BatchName string          `json:"batch_name"`
	Date      time.Time       `json:"date"`
	Entries   []BatchDayEntry `json:"attendance"`
}

// AttendanceStats aggregates a student's marks. Percentage is a 2-decimal
// string; "0.00" when Total is zero.
type AttendanceStats struct {
	Total      int    `json:"total"`
	Present    int    `json:"present"`
	Absent     int    `json:"absent"`
	Leave      int    `json:"leave"`
	Percentage string `json:"percentage"`
}

// StudentAttendanceReport bundles history and statistics.
type StudentAttendanceReport struct {
	StudentID string          `json:"student_id"`
	Records   []Attendance    `json:"records"`
	Stats     AttendanceStats `json:"statistics"`
}

// MonthlyBatchBreakdown is the per-batch slice of a monthly report.
// Percentage uses integer rounding.
type MonthlyBatchBreakdown struct {
	BatchID    string `json:"batch_id"`
	BatchName  string `json:"batch_name"`
	Attended   int    `json:"attended"`
	Total      int    `json:"total_classes"`
	Percentage int    `json:"percentage"`
}

// MonthlyAttendanceReport is a student's calendar-month summary.
type MonthlyAttendanceReport struct {
	StudentID    string                  `json:"student_id"`
	StudentName  string                  `json:"student_name"`
	Month        int                     `json:"month"`
	Year         int                     `json:"year"`
	TotalClasses int                     `json:"total_classes"`
	Attended     int                     `json:"attended"`
	Percentage   int                     `json:"percentage"`
	BatchDetails []MonthlyBatchBreakdown `json:"batch_details"`
}
