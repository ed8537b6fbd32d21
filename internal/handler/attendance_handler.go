package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupoint/coaching-admin-api/internal/models"
	"github.com/edupoint/coaching-admin-api/internal/service"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
	"github.com/edupoint/coaching-admin-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Mark godoc
// @Summary Record an attendance mark
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	markedBy := ""
	if claims, ok := currentClaims(c); ok {
		markedBy = claims.UserID
	}

	record, err := h.attendance.Mark(c.Request.Context(), req, markedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// BatchDay godoc
// @Summary Full roster attendance view for a batch and day
// @Tags Attendance
// @Produce json
// @Param batchId query string true "Batch ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/batch [get]
func (h *AttendanceHandler) BatchDay(c *gin.Context) {
	batchID, date, err := batchDayParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.attendance.BatchDay(c.Request.Context(), batchID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportBatchDay godoc
// @Summary Download a batch/day attendance sheet as CSV
// @Tags Attendance
// @Produce text/csv
// @Param batchId query string true "Batch ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200
// @Router /attendance/batch/export [get]
func (h *AttendanceHandler) ExportBatchDay(c *gin.Context) {
	batchID, date, err := batchDayParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, filename, err := h.attendance.ExportBatchDay(c.Request.Context(), batchID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", payload)
}

// StudentHistory godoc
// @Summary A student's attendance history with statistics
// @Tags Attendance
// @Produce json
// @Param studentId query string true "Student ID"
// @Param batchId query string false "Limit to one batch"
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/student [get]
func (h *AttendanceHandler) StudentHistory(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	from, err := time.Parse(models.DateLayout, c.Query("startDate"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse(models.DateLayout, c.Query("endDate"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD"))
		return
	}

	report, err := h.attendance.StudentHistory(c.Request.Context(), studentID, c.Query("batchId"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// MonthlyReport godoc
// @Summary A student's monthly attendance summary
// @Tags Attendance
// @Produce json
// @Param studentId query string true "Student ID"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /attendance/monthly-report [get]
func (h *AttendanceHandler) MonthlyReport(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	month, year, err := monthYearParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.attendance.MonthlyReport(c.Request.Context(), studentID, month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// EmailMonthlyReports godoc
// @Summary Queue monthly report emails for every student of a batch
// @Tags Attendance
// @Produce json
// @Param batchId query string true "Batch ID"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Success 202 {object} response.Envelope
// @Router /attendance/monthly-report/email [post]
func (h *AttendanceHandler) EmailMonthlyReports(c *gin.Context) {
	batchID := c.Query("batchId")
	if batchID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batchId is required"))
		return
	}
	month, year, err := monthYearParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	queued, err := h.attendance.EmailMonthlyReports(c.Request.Context(), batchID, month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": queued}, nil)
}

func batchDayParams(c *gin.Context) (string, time.Time, error) {
	batchID := c.Query("batchId")
	if batchID == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "batchId is required")
	}
	date, err := time.Parse(models.DateLayout, c.Query("date"))
	if err != nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return batchID, date, nil
}

func monthYearParams(c *gin.Context) (int, int, error) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}
	return month, year, nil
}
