package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	integrationapp "github.com/qm/backend/internal/application/integration"
	"github.com/qm/backend/internal/infrastructure/event"
	"github.com/qm/backend/internal/infrastructure/scheduler"
	"github.com/qm/backend/internal/interfaces/http/dto"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// SyncQueue accepts legacy sync jobs and remembers the finished ones
type SyncQueue interface {
	ScheduleSync(tenantID uuid.UUID, models []string, full bool) (*scheduler.SyncJob, error)
	GetJobHistoryByTenant(tenantID uuid.UUID, limit int) []*scheduler.SyncJob
}

// SyncRunner pulls legacy records in the request goroutine
type SyncRunner interface {
	Sync(ctx context.Context, tenantID uuid.UUID, req integrationapp.SyncRequest) (*integrationapp.SyncResponse, error)
}

// SyncHandler triggers and reports legacy data syncs
type SyncHandler struct {
	BaseHandler
	queue  SyncQueue
	runner SyncRunner
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(queue SyncQueue, runner SyncRunner) *SyncHandler {
	return &SyncHandler{queue: queue, runner: runner}
}

// SyncJobView is a queued or finished sync job
type SyncJobView struct {
	ID            uuid.UUID  `json:"id"`
	Models        []string   `json:"models,omitempty"`
	Full          bool       `json:"full"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	RetryCount    int        `json:"retry_count"`
	TotalRecords  int        `json:"total_records"`
	SuccessCount  int        `json:"success_count"`
	FailedCount   int        `json:"failed_count"`
	FailedRecords []string   `json:"failed_records,omitempty"`
}

func toSyncJobView(j *scheduler.SyncJob) SyncJobView {
	return SyncJobView{
		ID:            j.ID,
		Models:        j.Models,
		Full:          j.Full,
		Status:        string(j.Status),
		Error:         j.Error,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		RetryCount:    j.RetryCount,
		TotalRecords:  j.TotalRecords,
		SuccessCount:  j.SuccessCount,
		FailedCount:   j.FailedCount,
		FailedRecords: j.FailedRecords,
	}
}

// Trigger handles POST /sync. The job is queued and answered with 202
// unless wait=true asks for the result of an inline run.
func (h *SyncHandler) Trigger(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req integrationapp.SyncRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		resp, err := h.runner.Sync(c.Request.Context(), tenantID, req)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
		return
	}

	job, err := h.queue.ScheduleSync(tenantID, req.Models, req.Full)
	if err != nil {
		if errors.Is(err, scheduler.ErrSchedulerNotRunning) || errors.Is(err, scheduler.ErrJobQueueFull) {
			h.Error(c, dto.ErrCodeUnavailable, err.Error())
			return
		}
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(toSyncJobView(job)))
}

// History handles GET /sync/jobs
func (h *SyncHandler) History(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	limit := queryLimit(c, defaultHistoryLimit, maxHistoryLimit)
	jobs := h.queue.GetJobHistoryByTenant(tenantID, limit)
	views := make([]SyncJobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, toSyncJobView(j))
	}
	h.Success(c, views)
}

// EventLog reads published events of one aggregate
type EventLog interface {
	FindByAggregate(ctx context.Context, tenantID, aggregateID uuid.UUID, limit int) ([]event.JournalEntry, error)
}

// JournalHandler serves the audit trail of domain events
type JournalHandler struct {
	BaseHandler
	journal EventLog
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journal EventLog) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// ByAggregate handles GET /events/:id, oldest first
func (h *JournalHandler) ByAggregate(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	entries, err := h.journal.FindByAggregate(c.Request.Context(), tenantID, id, queryLimit(c, 50, 500))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// queryLimit reads ?limit=, falling back to def and capping at ceiling
func queryLimit(c *gin.Context, def, ceiling int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 1 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}
