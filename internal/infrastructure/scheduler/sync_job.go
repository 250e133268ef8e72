package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// SyncJobStatus represents the status of a legacy sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusPartial SyncJobStatus = "PARTIAL"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// SyncJob is one legacy sync run for a tenant
type SyncJob struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Models      []string
	Full        bool
	Status      SyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time

	TotalRecords  int
	SuccessCount  int
	FailedCount   int
	FailedRecords []string
}

// NewSyncJob creates a pending job. Empty models means every model.
func NewSyncJob(tenantID uuid.UUID, models []string, full bool, maxRetries int) *SyncJob {
	return &SyncJob{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Models:     models,
		Full:       full,
		Status:     SyncJobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the counts and derives the status
func (j *SyncJob) Complete(total, success, failed int) {
	now := time.Now()
	j.TotalRecords = total
	j.SuccessCount = success
	j.FailedCount = failed
	j.CompletedAt = &now

	switch {
	case failed == 0:
		j.Status = SyncJobStatusSuccess
	case success > 0:
		j.Status = SyncJobStatusPartial
	default:
		j.Status = SyncJobStatusFailed
	}
}

// Fail marks the job as failed
func (j *SyncJob) Fail(err string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job failed as a whole and has retries left.
// A partial run is not retried; its failed records are reported instead.
func (j *SyncJob) ShouldRetry() bool {
	return j.Status == SyncJobStatusFailed && j.Error != "" && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *SyncJob) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = SyncJobStatusPending
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}
