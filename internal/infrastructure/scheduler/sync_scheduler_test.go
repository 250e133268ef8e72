package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Workers:       1,
		JobTimeout:    time.Second,
		RetryAttempts: 2,
		RetryDelay:    10 * time.Millisecond,
	}
}

type staticTenants []uuid.UUID

func (t staticTenants) GetAllActiveTenantIDs(context.Context) ([]uuid.UUID, error) {
	return t, nil
}

func TestSyncJob_Complete(t *testing.T) {
	tests := []struct {
		name            string
		success, failed int
		want            SyncJobStatus
	}{
		{"All success", 10, 0, SyncJobStatusSuccess},
		{"Partial", 8, 2, SyncJobStatusPartial},
		{"All failed", 0, 3, SyncJobStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewSyncJob(uuid.New(), nil, false, 3)
			job.Start()
			job.Complete(tt.success+tt.failed, tt.success, tt.failed)
			assert.Equal(t, tt.want, job.Status)
			assert.NotNil(t, job.CompletedAt)
		})
	}
}

func TestSyncJob_ShouldRetry(t *testing.T) {
	job := NewSyncJob(uuid.New(), nil, false, 1)
	job.Start()
	job.Complete(2, 0, 2)
	assert.False(t, job.ShouldRetry(), "record failures are not retried")

	job.Fail("connection refused")
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, SyncJobStatusPending, job.Status)
	require.NotNil(t, job.NextRetryAt)

	job.Fail("connection refused")
	assert.False(t, job.ShouldRetry())
}

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	valid := DefaultSyncSchedulerConfig()
	assert.NoError(t, valid.Validate())

	noWorkers := valid
	noWorkers.Workers = 0
	assert.ErrorIs(t, noWorkers.Validate(), ErrInvalidConfig)

	noDelay := valid
	noDelay.RetryDelay = 0
	assert.ErrorIs(t, noDelay.Validate(), ErrInvalidConfig)

	_, err := NewSyncScheduler(valid, SyncExecutorFunc(func(context.Context, *SyncJob) error { return nil }), nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig, "periodic runs need a tenant provider")
}

func TestSyncScheduler_SubmitRequiresStart(t *testing.T) {
	s, err := NewSyncScheduler(testConfig(), SyncExecutorFunc(func(context.Context, *SyncJob) error { return nil }), nil, zap.NewNop())
	require.NoError(t, err)
	_, err = s.ScheduleSync(uuid.New(), nil, false)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSyncScheduler_RunsAndRetries(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	executor := SyncExecutorFunc(func(ctx context.Context, job *SyncJob) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("legacy server unavailable")
		}
		job.Complete(5, 5, 0)
		close(done)
		return nil
	})

	s, err := NewSyncScheduler(testConfig(), executor, nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	tenantID := uuid.New()
	job, err := s.ScheduleSync(tenantID, []string{"res.partner"}, true)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Eventually(t, func() bool {
		return len(s.GetJobHistoryByTenant(tenantID, 10)) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, job.RetryCount)
}

func TestSyncScheduler_PeriodicTrigger(t *testing.T) {
	tenants := staticTenants{uuid.New(), uuid.New()}
	seen := make(chan uuid.UUID, 10)
	executor := SyncExecutorFunc(func(ctx context.Context, job *SyncJob) error {
		assert.False(t, job.Full)
		seen <- job.TenantID
		job.Complete(0, 0, 0)
		return nil
	})

	cfg := testConfig()
	cfg.Interval = 20 * time.Millisecond
	s, err := NewSyncScheduler(cfg, executor, tenants, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	got := map[uuid.UUID]bool{}
	timeout := time.After(2 * time.Second)
	for len(got) < len(tenants) {
		select {
		case id := <-seen:
			got[id] = true
		case <-timeout:
			t.Fatal("periodic sync did not cover every tenant")
		}
	}
}

type busyLocker struct{ held atomic.Bool }

func (l *busyLocker) TryLock(context.Context, string, time.Duration) (func(), error) {
	if !l.held.CompareAndSwap(false, true) {
		return nil, nil
	}
	return func() { l.held.Store(false) }, nil
}

func TestSyncScheduler_SkipsBusyTenant(t *testing.T) {
	var calls int32
	executor := SyncExecutorFunc(func(ctx context.Context, job *SyncJob) error {
		atomic.AddInt32(&calls, 1)
		job.Complete(1, 1, 0)
		return nil
	})

	s, err := NewSyncScheduler(testConfig(), executor, nil, zap.NewNop())
	require.NoError(t, err)
	locker := &busyLocker{}
	locker.held.Store(true)
	s.SetLocker(locker)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	tenantID := uuid.New()
	job, err := s.ScheduleSync(tenantID, nil, false)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(s.GetJobHistoryByTenant(tenantID, 10)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, SyncJobStatusFailed, job.Status)
	assert.Equal(t, ErrTenantBusy.Error(), job.Error)
}
