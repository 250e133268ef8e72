package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSyncTimeout is returned when a sync job runs past its timeout
	ErrSyncTimeout = errors.New("legacy sync timed out")

	// ErrTenantBusy is recorded on a job skipped because the tenant was already syncing
	ErrTenantBusy = errors.New("tenant sync already running")
)
