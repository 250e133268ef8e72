package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncExecutor runs a legacy sync job and fills in its counts
type SyncExecutor interface {
	Execute(ctx context.Context, job *SyncJob) error
}

// SyncExecutorFunc adapts a function to SyncExecutor
type SyncExecutorFunc func(ctx context.Context, job *SyncJob) error

// Execute calls f
func (f SyncExecutorFunc) Execute(ctx context.Context, job *SyncJob) error {
	return f(ctx, job)
}

// TenantProvider lists the tenants the periodic sync runs for
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TenantLocker serializes sync runs of a tenant across server instances.
// release is nil when the lock was not acquired.
type TenantLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// SyncSchedulerConfig holds configuration for the legacy sync scheduler
type SyncSchedulerConfig struct {
	// Workers is the number of jobs run concurrently
	Workers int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// Interval between periodic runs; zero disables them
	Interval time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Workers:       2,
		JobTimeout:    15 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
		Interval:      time.Hour,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Workers <= 0 || c.JobTimeout <= 0 || c.RetryAttempts < 0 || c.Interval < 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts > 0 && c.RetryDelay <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SyncScheduler runs legacy sync jobs on a worker pool, submitting an
// incremental job per tenant every Interval
type SyncScheduler struct {
	config   SyncSchedulerConfig
	executor SyncExecutor
	tenants  TenantProvider
	logger   *zap.Logger
	locker   TenantLocker

	jobs      chan *SyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu  sync.RWMutex
	history    []*SyncJob
	maxHistory int
}

// NewSyncScheduler creates a new legacy sync scheduler. tenants may be nil
// when Interval is zero.
func NewSyncScheduler(config SyncSchedulerConfig, executor SyncExecutor, tenants TenantProvider, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Interval > 0 && tenants == nil {
		return nil, ErrInvalidConfig
	}
	return &SyncScheduler{
		config:     config,
		executor:   executor,
		tenants:    tenants,
		logger:     logger,
		jobs:       make(chan *SyncJob, 100),
		history:    make([]*SyncJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// SetLocker makes jobs skip tenants another instance is already syncing
func (s *SyncScheduler) SetLocker(locker TenantLocker) {
	s.locker = locker
}

// Start starts the workers and the periodic trigger
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	if s.config.Interval > 0 {
		s.wg.Add(1)
		go s.runLoop(ctx)
	}

	s.logger.Info("Legacy sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Legacy sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Legacy sync scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob queues a job for execution
func (s *SyncScheduler) SubmitJob(job *SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Legacy sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.Strings("models", job.Models),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleSync queues a sync of models for a tenant
func (s *SyncScheduler) ScheduleSync(tenantID uuid.UUID, models []string, full bool) (*SyncJob, error) {
	job := NewSyncJob(tenantID, models, full, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.triggerAll(ctx)
		}
	}
}

func (s *SyncScheduler) triggerAll(ctx context.Context) {
	tenantIDs, err := s.tenants.GetAllActiveTenantIDs(ctx)
	if err != nil {
		s.logger.Error("Failed to get tenant IDs for legacy sync", zap.Error(err))
		return
	}
	for _, tenantID := range tenantIDs {
		if _, err := s.ScheduleSync(tenantID, nil, false); err != nil {
			s.logger.Error("Failed to schedule legacy sync",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *SyncScheduler) requeue(job *SyncJob) {
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("Failed to re-queue legacy sync job", zap.String("job_id", job.ID.String()))
	}
}

func (s *SyncScheduler) processJob(ctx context.Context, job *SyncJob, workerID int) {
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		select {
		case <-ctx.Done():
		case <-time.After(time.Until(*job.NextRetryAt)):
			s.requeue(job)
		}
		return
	}

	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, "sync:"+job.TenantID.String(), s.config.JobTimeout)
		if err != nil {
			s.logger.Warn("Sync lock unavailable, running unlocked",
				zap.String("tenant_id", job.TenantID.String()),
				zap.Error(err),
			)
		} else if release == nil {
			job.Fail(ErrTenantBusy.Error())
			s.logger.Info("Legacy sync skipped, tenant busy",
				zap.String("job_id", job.ID.String()),
				zap.String("tenant_id", job.TenantID.String()),
			)
			s.addToHistory(job)
			return
		} else {
			defer release()
		}
	}

	job.Start()
	s.logger.Info("Processing legacy sync job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", job.TenantID.String()),
		zap.Bool("full", job.Full),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := s.executor.Execute(jobCtx, job); err != nil {
		if jobCtx.Err() == context.DeadlineExceeded {
			err = ErrSyncTimeout
		}
		job.Fail(err.Error())
		s.logger.Error("Legacy sync job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.Error(err),
		)
		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Legacy sync job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Time("next_retry_at", *job.NextRetryAt),
			)
			s.requeue(job)
		}
		s.addToHistory(job)
		return
	}

	s.logger.Info("Legacy sync job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("total_records", job.TotalRecords),
		zap.Int("failed_count", job.FailedCount),
	)
	s.addToHistory(job)
}

func (s *SyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncJob{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistoryByTenant returns the most recent jobs of a tenant, newest first
func (s *SyncScheduler) GetJobHistoryByTenant(tenantID uuid.UUID, limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*SyncJob, 0, limit)
	for _, job := range s.history {
		if job.TenantID == tenantID {
			result = append(result, job)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}
