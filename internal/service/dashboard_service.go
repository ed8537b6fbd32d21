package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edupoint/coaching-admin-api/internal/models"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type teacherCounter interface {
	CountByStatus(ctx context.Context, status models.TeacherStatus) (int, error)
}

type studentCounter interface {
	Count(ctx context.Context) (int, error)
}

type batchCounter interface {
	CountByStatus(ctx context.Context, status models.BatchStatus) (int, error)
}

type feeAggregator interface {
	StatusTotals(ctx context.Context, status models.FeeStatus) (int, float64, error)
	CollectedForPeriod(ctx context.Context, month string, year int) (float64, error)
}

type attendanceCounter interface {
	CountForDate(ctx context.Context, date time.Time) (map[models.AttendanceStatus]int, error)
}

// DashboardService composes the admin landing-page summary with a Redis
// cache in front of the aggregate queries.
type DashboardService struct {
	cache      dashboardCache
	teachers   teacherCounter
	students   studentCounter
	batches    batchCounter
	fees       feeAggregator
	attendance attendanceCounter
	metrics    *MetricsService
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(cache dashboardCache, teachers teacherCounter, students studentCounter,
	batches batchCounter, fees feeAggregator, attendance attendanceCounter,
	metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		cache:      cache,
		teachers:   teachers,
		students:   students,
		batches:    batches,
		fees:       fees,
		attendance: attendance,
		metrics:    metrics,
		ttl:        ttl,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns the dashboard payload, served from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	if s.cache != nil {
		var cached models.DashboardSummary
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	summary, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary. The mutating services call it
// after writes that change the aggregates; safe on a nil receiver so
// callers need no wiring check.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) build(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.now()
	summary := &models.DashboardSummary{GeneratedAt: now}

	activeTeachers, err := s.teachers.CountByStatus(ctx, models.TeacherStatusActive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	summary.ActiveTeachers = activeTeachers

	students, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	summary.ActiveStudents = students

	activeBatches, err := s.batches.CountByStatus(ctx, models.BatchStatusActive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count batches")
	}
	summary.ActiveBatches = activeBatches

	pendingCount, pendingAmount, err := s.fees.StatusTotals(ctx, models.FeeStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total pending fees")
	}
	summary.PendingFees = pendingCount
	summary.PendingAmount = pendingAmount

	overdueCount, overdueAmount, err := s.fees.StatusTotals(ctx, models.FeeStatusOverdue)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total overdue fees")
	}
	summary.OverdueFees = overdueCount
	summary.OverdueAmount = overdueAmount

	collected, err := s.fees.CollectedForPeriod(ctx, now.Month().String(), now.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total collections")
	}
	summary.CollectedThisMonth = collected

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	counts, err := s.attendance.CountForDate(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	for _, n := range counts {
		summary.MarkedToday += n
	}
	summary.AbsentToday = counts[models.AttendanceStatusAbsent]

	return summary, nil
}
