package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupoint/coaching-admin-api/internal/models"
	"github.com/edupoint/coaching-admin-api/internal/service"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
	"github.com/edupoint/coaching-admin-api/pkg/response"
)

// FeeHandler exposes fee and receipt endpoints.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// Create godoc
// @Summary Raise a fee obligation
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body models.CreateFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	var req models.CreateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// List godoc
// @Summary List fees
// @Tags Fees
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param batchId query string false "Filter by batch"
// @Param status query string false "Filter by status"
// @Param month query string false "Filter by billing month"
// @Param year query int false "Filter by billing year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	var filter models.FeeFilter
	filter.StudentID = c.Query("studentId")
	filter.BatchID = c.Query("batchId")
	filter.Month = c.Query("month")
	if status := c.Query("status"); status != "" {
		s := models.FeeStatus(status)
		filter.Status = &s
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	fees, total, err := h.fees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get fee detail
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// RecordPayment godoc
// @Summary Record a fee payment
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body models.RecordPaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /fees/payment [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var req models.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, message, err := h.fees.RecordPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil, map[string]interface{}{"message": message})
}

// Pending godoc
// @Summary List pending fees
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/status/pending [get]
func (h *FeeHandler) Pending(c *gin.Context) {
	fees, err := h.fees.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// Overdue godoc
// @Summary Sweep and list overdue fees
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/status/overdue [get]
func (h *FeeHandler) Overdue(c *gin.Context) {
	fees, err := h.fees.Overdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// Receipt godoc
// @Summary View the receipt of a paid fee
// @Tags Fees
// @Produce json
// @Param feeId path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/receipt/{feeId} [get]
func (h *FeeHandler) Receipt(c *gin.Context) {
	receipt, err := h.fees.Receipt(c.Request.Context(), c.Param("feeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// ReceiptPDF godoc
// @Summary Download the receipt of a paid fee as PDF
// @Tags Fees
// @Produce application/pdf
// @Param feeId path string true "Fee ID"
// @Success 200
// @Router /fees/receipt/{feeId}/pdf [get]
func (h *FeeHandler) ReceiptPDF(c *gin.Context) {
	payload, filename, err := h.fees.ReceiptPDF(c.Request.Context(), c.Param("feeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// ReceiptLink godoc
// @Summary Create an expiring signed download link for a receipt
// @Tags Fees
// @Produce json
// @Param feeId path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/receipt/{feeId}/link [post]
func (h *FeeHandler) ReceiptLink(c *gin.Context) {
	token, expiresAt, err := h.fees.ReceiptDownloadLink(c.Request.Context(), c.Param("feeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	}, nil)
}

// DownloadSigned godoc
// @Summary Download an archived receipt using a signed token
// @Tags Fees
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200
// @Router /fees/receipt/download [get]
func (h *FeeHandler) DownloadSigned(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	filename, path, err := h.fees.OpenSignedReceipt(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.File(path)
}
