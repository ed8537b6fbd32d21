package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupoint/coaching-admin-api/internal/models"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
)

type fakeDashboardCache struct {
	entries  map[string][]byte
	gets     int
	sets     int
	dropped  []string
	disabled bool
}

func (f *fakeDashboardCache) Get(_ context.Context, key string, dest interface{}) error {
	f.gets++
	if f.disabled {
		return appErrors.Clone(appErrors.ErrCacheMiss, "")
	}
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.Clone(appErrors.ErrCacheMiss, "")
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeDashboardCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.sets++
	if f.entries == nil {
		f.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeDashboardCache) DeleteByPattern(_ context.Context, pattern string) error {
	f.dropped = append(f.dropped, pattern)
	f.entries = nil
	return nil
}

type fakeTeacherCounter struct{ active int }

func (f fakeTeacherCounter) CountByStatus(context.Context, models.TeacherStatus) (int, error) {
	return f.active, nil
}

type fakeStudentCounter struct{ total int }

func (f fakeStudentCounter) Count(context.Context) (int, error) { return f.total, nil }

type fakeBatchCounter struct{ active int }

func (f fakeBatchCounter) CountByStatus(context.Context, models.BatchStatus) (int, error) {
	return f.active, nil
}

type fakeFeeAggregator struct {
	totals    map[models.FeeStatus][2]float64
	collected float64
}

func (f fakeFeeAggregator) StatusTotals(_ context.Context, status models.FeeStatus) (int, float64, error) {
	t := f.totals[status]
	return int(t[0]), t[1], nil
}

func (f fakeFeeAggregator) CollectedForPeriod(context.Context, string, int) (float64, error) {
	return f.collected, nil
}

type fakeAttendanceCounter struct {
	counts map[models.AttendanceStatus]int
}

func (f fakeAttendanceCounter) CountForDate(context.Context, time.Time) (map[models.AttendanceStatus]int, error) {
	return f.counts, nil
}

func newDashboardFixture(cache *fakeDashboardCache) *DashboardService {
	return NewDashboardService(
		cache,
		fakeTeacherCounter{active: 4},
		fakeStudentCounter{total: 120},
		fakeBatchCounter{active: 9},
		fakeFeeAggregator{
			totals: map[models.FeeStatus][2]float64{
				models.FeeStatusPending: {10, 15000},
				models.FeeStatusOverdue: {3, 4500},
			},
			collected: 82000,
		},
		fakeAttendanceCounter{counts: map[models.AttendanceStatus]int{
			models.AttendanceStatusPresent: 80,
			models.AttendanceStatusAbsent:  12,
			models.AttendanceStatusLeave:   3,
		}},
		nil, time.Minute, nil,
	)
}

func TestDashboardServiceSummaryAggregates(t *testing.T) {
	cache := &fakeDashboardCache{}
	svc := newDashboardFixture(cache)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.ActiveTeachers)
	assert.Equal(t, 120, summary.ActiveStudents)
	assert.Equal(t, 9, summary.ActiveBatches)
	assert.Equal(t, 10, summary.PendingFees)
	assert.Equal(t, float64(15000), summary.PendingAmount)
	assert.Equal(t, 3, summary.OverdueFees)
	assert.Equal(t, float64(82000), summary.CollectedThisMonth)
	assert.Equal(t, 95, summary.MarkedToday)
	assert.Equal(t, 12, summary.AbsentToday)
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardServiceSummaryServedFromCache(t *testing.T) {
	cache := &fakeDashboardCache{}
	svc := newDashboardFixture(cache)

	first, err := svc.Summary(context.Background())
	require.NoError(t, err)
	second, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.ActiveStudents, second.ActiveStudents)
	assert.Equal(t, 2, cache.gets)
	// Only the first call rebuilt and rewrote the cache.
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardServiceInvalidate(t *testing.T) {
	cache := &fakeDashboardCache{}
	svc := newDashboardFixture(cache)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	svc.Invalidate(context.Background())
	assert.Equal(t, []string{dashboardCacheKey}, cache.dropped)

	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets)
}

func TestDashboardServiceWorksWithoutCache(t *testing.T) {
	svc := NewDashboardService(
		nil,
		fakeTeacherCounter{active: 1},
		fakeStudentCounter{total: 2},
		fakeBatchCounter{active: 1},
		fakeFeeAggregator{},
		fakeAttendanceCounter{},
		nil, time.Minute, nil,
	)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ActiveStudents)
}
