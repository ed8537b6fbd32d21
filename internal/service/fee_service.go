package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupoint/coaching-admin-api/internal/models"
	"github.com/edupoint/coaching-admin-api/internal/notification"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
	"github.com/edupoint/coaching-admin-api/pkg/export"
	"github.com/edupoint/coaching-admin-api/pkg/storage"
)

type feeRepository interface {
	NextReceiptSequence(ctx context.Context, year, month int) (int, error)
	ExistsForPeriod(ctx context.Context, studentID, batchID, month string, year int) (bool, error)
	Create(ctx context.Context, fee *models.Fee) error
	FindByID(ctx context.Context, id string) (*models.Fee, error)
	UpdatePayment(ctx context.Context, fee *models.Fee) error
	List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error)
	ListByStatus(ctx context.Context, status models.FeeStatus) ([]models.Fee, error)
	SweepOverdue(ctx context.Context, asOf time.Time) (int64, error)
	ReceiptContext(ctx context.Context, feeID string) (*models.FeeReceipt, error)
}

type feeBatchRepository interface {
	FindByID(ctx context.Context, id string) (*models.BatchDetail, error)
}

// PaymentNotificationSkipped is returned alongside a successful payment
// when the guardian has no email on file.
const PaymentNotificationSkipped = "payment recorded, notification skipped"

// PaymentRecorded is the default message for a successful payment.
const PaymentRecorded = "payment recorded"

// FeeService provides fee lifecycle and receipt use cases.
type FeeService struct {
	repo      feeRepository
	batches   feeBatchRepository
	students  contactResolver
	gateway   notification.Gateway
	pdf       *export.ReceiptPDFExporter
	archive   *storage.ReceiptArchive
	signer    *storage.SignedURLSigner
	institute models.InstituteInfo
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	dashboard *DashboardService
	now       func() time.Time
}

// SetMetrics attaches the Prometheus recorder. Optional.
func (s *FeeService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// SetDashboard attaches the dashboard cache so fee writes refresh the
// summary. Optional.
func (s *FeeService) SetDashboard(dashboard *DashboardService) {
	s.dashboard = dashboard
}

// NewFeeService constructs a FeeService instance.
func NewFeeService(repo feeRepository, batches feeBatchRepository, students contactResolver,
	gateway notification.Gateway, pdf *export.ReceiptPDFExporter, archive *storage.ReceiptArchive,
	signer *storage.SignedURLSigner, institute models.InstituteInfo,
	validate *validator.Validate, logger *zap.Logger) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if gateway == nil {
		gateway = notification.NoopGateway{}
	}
	if pdf == nil {
		pdf = export.NewReceiptPDFExporter()
	}
	return &FeeService{
		repo:      repo,
		batches:   batches,
		students:  students,
		gateway:   gateway,
		pdf:       pdf,
		archive:   archive,
		signer:    signer,
		institute: institute,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create raises a fee obligation. The receipt number is reserved
// atomically at creation so it is unique even under concurrent creates.
func (s *FeeService) Create(ctx context.Context, req models.CreateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	dueDate, err := time.Parse(models.DateLayout, req.DueDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid due date")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	batch, err := s.batches.FindByID(ctx, req.BatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch batch")
	}
	enrolled := false
	for _, id := range batch.StudentIDs {
		if id == req.StudentID {
			enrolled = true
			break
		}
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this batch")
	}

	exists, err := s.repo.ExistsForPeriod(ctx, req.StudentID, req.BatchID, req.Month, req.Year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check billing period")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "fee already exists for this billing period")
	}

	receiptNumber, err := s.reserveReceiptNumber(ctx)
	if err != nil {
		return nil, err
	}

	fee := &models.Fee{
		StudentID:     req.StudentID,
		BatchID:       req.BatchID,
		Amount:        req.Amount,
		DueDate:       dueDate,
		Status:        models.FeeStatusPending,
		ReceiptNumber: receiptNumber,
		Month:         req.Month,
		Year:          req.Year,
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee")
	}
	s.dashboard.Invalidate(ctx)

	s.logger.Info("fee created",
		zap.String("fee_id", fee.ID), zap.String("receipt_number", fee.ReceiptNumber))
	return fee, nil
}

// reserveReceiptNumber produces RCPT-{YY}{MM}{SEQ} with a four digit
// zero-padded sequence scoped to the current calendar month.
func (s *FeeService) reserveReceiptNumber(ctx context.Context) (string, error) {
	now := s.now()
	seq, err := s.repo.NextReceiptSequence(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve receipt number")
	}
	s.metrics.RecordReceiptIssued()
	return fmt.Sprintf("RCPT-%02d%02d%04d", now.Year()%100, int(now.Month()), seq), nil
}

// List returns fees matching the filter.
func (s *FeeService) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error) {
	fees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}
	return fees, total, nil
}

// Get returns a single fee.
func (s *FeeService) Get(ctx context.Context, id string) (*models.Fee, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch fee")
	}
	return fee, nil
}

// RecordPayment settles a pending or overdue fee. Paying an already-paid
// fee is a conflict and changes nothing. The guardian receipt email is
// best-effort; a missing email yields a success with a skip notice.
func (s *FeeService) RecordPayment(ctx context.Context, req models.RecordPaymentRequest) (*models.Fee, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	fee, err := s.Get(ctx, req.FeeID)
	if err != nil {
		return nil, "", err
	}
	if fee.Status == models.FeeStatusPaid {
		return nil, "", appErrors.Clone(appErrors.ErrAlreadyPaid, "")
	}

	paidDate := s.now()
	if req.PaidDate != nil {
		parsed, err := time.Parse(models.DateLayout, *req.PaidDate)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid paid date")
		}
		paidDate = parsed
	}

	method := req.PaymentMethod
	fee.Status = models.FeeStatusPaid
	fee.PaidDate = &paidDate
	fee.PaymentMethod = &method
	fee.TransactionID = req.TransactionID
	generatedAt := s.now()
	fee.ReceiptGeneratedAt = &generatedAt

	if err := s.repo.UpdatePayment(ctx, fee); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.dashboard.Invalidate(ctx)
	s.logger.Info("payment recorded",
		zap.String("fee_id", fee.ID), zap.String("receipt_number", fee.ReceiptNumber))

	message := s.sendReceiptEmail(ctx, fee)
	return fee, message, nil
}

// sendReceiptEmail attempts the guardian confirmation and reports the
// outcome message. Delivery failure never fails the payment.
func (s *FeeService) sendReceiptEmail(ctx context.Context, fee *models.Fee) string {
	contact, err := s.students.Contact(ctx, fee.StudentID)
	if err != nil {
		s.logger.Warn("receipt email skipped: contact lookup failed",
			zap.String("fee_id", fee.ID), zap.Error(err))
		return PaymentNotificationSkipped
	}
	if contact.Email == nil || *contact.Email == "" {
		s.logger.Warn("receipt email skipped: no guardian email",
			zap.String("fee_id", fee.ID))
		return PaymentNotificationSkipped
	}

	var pdfBytes []byte
	batchName := ""
	if receipt, err := s.Receipt(ctx, fee.ID); err == nil {
		batchName = receipt.BatchName
		if rendered, _, renderErr := s.renderReceiptPDF(receipt); renderErr == nil {
			pdfBytes = rendered
		} else {
			s.logger.Warn("receipt pdf render failed", zap.String("fee_id", fee.ID), zap.Error(renderErr))
		}
	}

	parentName := ""
	if contact.ParentName != nil {
		parentName = *contact.ParentName
	}
	email := notification.ReceiptEmail{
		StudentName:   contact.StudentName,
		ParentName:    parentName,
		Email:         *contact.Email,
		ReceiptNumber: fee.ReceiptNumber,
		BatchName:     batchName,
		Amount:        fee.Amount,
		Month:         fee.Month,
		Year:          fee.Year,
		PDF:           pdfBytes,
	}
	if err := s.gateway.SendReceiptEmail(ctx, email); err != nil {
		s.logger.Warn("receipt email delivery failed",
			zap.String("fee_id", fee.ID), zap.Error(err))
		s.metrics.RecordNotification("email", false)
		return PaymentNotificationSkipped
	}
	s.metrics.RecordNotification("email", true)
	return PaymentRecorded
}

// Pending returns all pending fees.
func (s *FeeService) Pending(ctx context.Context) ([]models.Fee, error) {
	fees, err := s.repo.ListByStatus(ctx, models.FeeStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending fees")
	}
	return fees, nil
}

// Overdue first sweeps pending fees past their due date into overdue,
// then returns everything overdue.
func (s *FeeService) Overdue(ctx context.Context) ([]models.Fee, error) {
	swept, err := s.repo.SweepOverdue(ctx, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep overdue fees")
	}
	if swept > 0 {
		s.logger.Info("fees moved to overdue", zap.Int64("count", swept))
		s.dashboard.Invalidate(ctx)
	}

	fees, err := s.repo.ListByStatus(ctx, models.FeeStatusOverdue)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overdue fees")
	}
	return fees, nil
}

// Receipt returns the receipt view of a paid fee. Unpaid fees have no
// receipt to show.
func (s *FeeService) Receipt(ctx context.Context, feeID string) (*models.FeeReceipt, error) {
	receipt, err := s.repo.ReceiptContext(ctx, feeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	if receipt.Fee.Status != models.FeeStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrUnpaidFee, "")
	}
	receipt.Institute = s.institute
	return receipt, nil
}

// ReceiptPDF renders the receipt document, archives it, and returns the
// bytes with a suggested filename.
func (s *FeeService) ReceiptPDF(ctx context.Context, feeID string) ([]byte, string, error) {
	receipt, err := s.Receipt(ctx, feeID)
	if err != nil {
		return nil, "", err
	}
	payload, filename, err := s.renderReceiptPDF(receipt)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}

	if s.archive != nil {
		if _, err := s.archive.Save(filename, payload); err != nil {
			s.logger.Warn("receipt archive failed", zap.String("fee_id", feeID), zap.Error(err))
		}
	}
	return payload, filename, nil
}

// ReceiptDownloadLink archives the rendered receipt and returns an
// expiring signed token for it.
func (s *FeeService) ReceiptDownloadLink(ctx context.Context, feeID string) (string, time.Time, error) {
	if s.signer == nil || s.archive == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "receipt downloads are not configured")
	}
	receipt, err := s.Receipt(ctx, feeID)
	if err != nil {
		return "", time.Time{}, err
	}
	payload, filename, err := s.renderReceiptPDF(receipt)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	relPath, err := s.archive.Save(filename, payload)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive receipt")
	}
	token, expiresAt, err := s.signer.Generate(feeID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expiresAt, nil
}

// OpenSignedReceipt validates a signed token and returns the archived
// file's name and on-disk location.
func (s *FeeService) OpenSignedReceipt(token string) (string, string, error) {
	if s.signer == nil || s.archive == nil {
		return "", "", appErrors.Clone(appErrors.ErrInternal, "receipt downloads are not configured")
	}
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	if !s.archive.Exists(relPath) {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "receipt file not found")
	}
	return relPath, s.archive.Path(relPath), nil
}

func (s *FeeService) renderReceiptPDF(receipt *models.FeeReceipt) ([]byte, string, error) {
	data := export.ReceiptData{
		ReceiptNumber:  receipt.Fee.ReceiptNumber,
		InstituteName:  receipt.Institute.Name,
		InstituteAddr:  receipt.Institute.Address,
		InstitutePhone: receipt.Institute.Phone,
		StudentName:    receipt.StudentName,
		RollNumber:     receipt.RollNumber,
		BatchName:      receipt.BatchName,
		Subject:        receipt.Subject,
		Month:          receipt.Fee.Month,
		Year:           receipt.Fee.Year,
		Amount:         receipt.Fee.Amount,
	}
	if receipt.ParentName != nil {
		data.ParentName = *receipt.ParentName
	}
	if receipt.Fee.PaymentMethod != nil {
		data.PaymentMethod = string(*receipt.Fee.PaymentMethod)
	}
	if receipt.Fee.TransactionID != nil {
		data.TransactionID = *receipt.Fee.TransactionID
	}
	if receipt.Fee.PaidDate != nil {
		data.PaidDate = receipt.Fee.PaidDate.Format(models.DateLayout)
	}

	payload, err := s.pdf.Render(data)
	if err != nil {
		return nil, "", err
	}
	filename := receipt.Fee.ReceiptNumber + ".pdf"
	return payload, filename, nil
}
