package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	integrationapp "github.com/qm/backend/internal/application/integration"
	"github.com/qm/backend/internal/domain/integration"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/infrastructure/auth"
	"github.com/qm/backend/internal/infrastructure/event"
	csvimport "github.com/qm/backend/internal/infrastructure/import"
	"github.com/qm/backend/internal/infrastructure/scheduler"
	"github.com/qm/backend/internal/interfaces/http/dto"
	"github.com/qm/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var testTenant = uuid.MustParse("0f4c6a3e-9b1d-4c55-8f0e-2f6f1f1b2a01")

// withCaller authenticates every request as a member of groups
func withCaller(groups ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &auth.Claims{TenantID: testTenant, UserID: uuid.New(), Username: "alice", Groups: groups}
		claims.ID = uuid.NewString()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
		middleware.SetClaims(c, claims)
		c.Next()
	}
}

func serve(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	if buf.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	type lineInput struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	verr := validationError(lineInput{})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"domain rule", shared.NewDomainError("NO_VENDOR_PRICE", "no price"), http.StatusUnprocessableEntity, "NO_VENDOR_PRICE"},
		{"wrapped domain", errors.Join(errors.New("ctx"), shared.NewDomainError("INVALID_STATE", "posted")), http.StatusUnprocessableEntity, "INVALID_STATE"},
		{"validation", verr, http.StatusBadRequest, dto.ErrCodeValidation},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge},
		{"json syntax", &json.SyntaxError{}, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"unexpected", errors.New("connection reset by peer"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := gin.New()
			r.GET("/", func(c *gin.Context) { h.HandleError(c, tt.err) })
			w := serve(r, http.MethodGet, "/", nil)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestBaseHandler_HandleError_HidesInternalMessage(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/", func(c *gin.Context) { h.HandleError(c, errors.New("pq: password authentication failed")) })

	w := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestBaseHandler_BindJSON(t *testing.T) {
	type input struct {
		Name     string `json:"name" binding:"required"`
		Quantity int    `json:"quantity" binding:"gt=0"`
	}
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var in input
		if h.BindJSON(c, &in) {
			h.Success(c, in)
		}
	})

	w := serve(r, http.MethodPost, "/", `{"quantity":0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "name", resp.Error.Details[0].Field)

	w = serve(r, http.MethodPost, "/", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Error.Code)

	w = serve(r, http.MethodPost, "/", `{"name":"bolt","quantity":2}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBaseHandler_Scope(t *testing.T) {
	h := &BaseHandler{}
	handle := func(c *gin.Context) {
		if _, id, ok := h.scope(c); ok {
			h.Success(c, id)
		}
	}

	anonymous := gin.New()
	anonymous.GET("/items/:id", handle)
	assert.Equal(t, http.StatusUnauthorized, serve(anonymous, http.MethodGet, "/items/"+uuid.NewString(), nil).Code)

	r := gin.New()
	r.Use(withCaller())
	r.GET("/items/:id", handle)
	w := serve(r, http.MethodGet, "/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)

	id := uuid.New()
	w = serve(r, http.MethodGet, "/items/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), decode(t, w).Data)
}

func TestItemAction(t *testing.T) {
	h := &BaseHandler{}
	var gotTenant, gotID uuid.UUID
	r := gin.New()
	r.Use(withCaller())
	r.POST("/orders/:id/confirm", func(c *gin.Context) {
		itemAction(h, c, func(_ context.Context, tenantID, id uuid.UUID) (string, error) {
			gotTenant, gotID = tenantID, id
			if id == uuid.Nil {
				return "", shared.NewDomainError("INVALID_STATE", "nope")
			}
			return "sale", nil
		})
	})

	id := uuid.New()
	w := serve(r, http.MethodPost, "/orders/"+id.String()+"/confirm", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testTenant, gotTenant)
	assert.Equal(t, id, gotID)

	w = serve(r, http.MethodPost, "/orders/"+uuid.Nil.String()+"/confirm", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUploadFile(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/import", func(c *gin.Context) {
		file, opts, ok := h.uploadFile(c, 64)
		if !ok {
			return
		}
		defer file.Close()
		h.Success(c, len(opts))
	})

	multipartBody := func(name, content string, fields map[string]string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range fields {
			_ = mw.WriteField(k, v)
		}
		if name != "" {
			fw, _ := mw.CreateFormFile(name, "sheet.csv")
			_, _ = fw.Write([]byte(content))
		}
		_ = mw.Close()
		return &buf, mw.FormDataContentType()
	}
	post := func(body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/import", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	body, ct := multipartBody("", "", nil)
	w := post(body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE", decode(t, w).Error.Code)

	body, ct = multipartBody("file", "code,name\n", map[string]string{"encoding": "latin1"})
	w = post(body, ct)
	assert.Equal(t, "INVALID_ENCODING", decode(t, w).Error.Code)

	body, ct = multipartBody("file", string(bytes.Repeat([]byte("x"), 65)), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(body, ct).Code)

	body, ct = multipartBody("file", "code,name\n", map[string]string{"encoding": "gb18030"})
	w = post(body, ct)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w).Data)
}

func TestHandleImportError(t *testing.T) {
	h := &BaseHandler{}
	for _, err := range []error{csvimport.ErrMissingColumns, csvimport.ErrEmptyFile, csvimport.ErrNoDataRows} {
		r := gin.New()
		r.GET("/", func(c *gin.Context) { h.handleImportError(c, err) })
		w := serve(r, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, err.Error())
		assert.Equal(t, "INVALID_FILE", decode(t, w).Error.Code)
	}
}

type fakeQueue struct {
	err     error
	history []*scheduler.SyncJob
	limit   int
}

func (q *fakeQueue) ScheduleSync(tenantID uuid.UUID, models []string, full bool) (*scheduler.SyncJob, error) {
	if q.err != nil {
		return nil, q.err
	}
	return scheduler.NewSyncJob(tenantID, models, full, 3), nil
}

func (q *fakeQueue) GetJobHistoryByTenant(_ uuid.UUID, limit int) []*scheduler.SyncJob {
	q.limit = limit
	return q.history
}

type fakeRunner struct {
	req integrationapp.SyncRequest
}

func (r *fakeRunner) Sync(_ context.Context, _ uuid.UUID, req integrationapp.SyncRequest) (*integrationapp.SyncResponse, error) {
	r.req = req
	return &integrationapp.SyncResponse{Results: []integration.SyncResult{{TotalCount: 3}}}, nil
}

func syncEngine(h *SyncHandler) *gin.Engine {
	r := gin.New()
	r.Use(withCaller("admin"))
	r.POST("/sync", h.Trigger)
	r.GET("/sync/jobs", h.History)
	return r
}

func TestSyncHandler_Trigger(t *testing.T) {
	queue := &fakeQueue{}
	runner := &fakeRunner{}
	r := syncEngine(NewSyncHandler(queue, runner))

	w := serve(r, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, "PENDING", data["status"])

	w = serve(r, http.MethodPost, "/sync?wait=true", map[string]any{"models": []string{"product.category"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"product.category"}, runner.req.Models)

	w = serve(r, http.MethodPost, "/sync", map[string]any{"models": []string{"sale.order"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncHandler_TriggerUnavailable(t *testing.T) {
	for _, err := range []error{scheduler.ErrSchedulerNotRunning, scheduler.ErrJobQueueFull} {
		r := syncEngine(NewSyncHandler(&fakeQueue{err: err}, nil))
		w := serve(r, http.MethodPost, "/sync", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeUnavailable, decode(t, w).Error.Code)
	}
}

func TestSyncHandler_History(t *testing.T) {
	job := scheduler.NewSyncJob(testTenant, nil, false, 3)
	job.Start()
	job.Complete(10, 8, 2)
	queue := &fakeQueue{history: []*scheduler.SyncJob{job}}
	r := syncEngine(NewSyncHandler(queue, nil))

	w := serve(r, http.MethodGet, "/sync/jobs?limit=1000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxHistoryLimit, queue.limit)
	items := decode(t, w).Data.([]any)
	require.Len(t, items, 1)
	view := items[0].(map[string]any)
	assert.Equal(t, float64(10), view["total_records"])
	assert.Equal(t, float64(2), view["failed_count"])

	serve(r, http.MethodGet, "/sync/jobs", nil)
	assert.Equal(t, defaultHistoryLimit, queue.limit)
}

type fakeEventLog struct {
	entries []event.JournalEntry
}

func (f fakeEventLog) FindByAggregate(_ context.Context, tenantID, aggregateID uuid.UUID, _ int) ([]event.JournalEntry, error) {
	var out []event.JournalEntry
	for _, e := range f.entries {
		if e.TenantID == tenantID && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestJournalHandler_ByAggregate(t *testing.T) {
	orderID := uuid.New()
	log := fakeEventLog{entries: []event.JournalEntry{
		{ID: uuid.New(), TenantID: testTenant, AggregateID: orderID, EventType: "SalesOrderConfirmed"},
		{ID: uuid.New(), TenantID: uuid.New(), AggregateID: orderID, EventType: "SalesOrderConfirmed"},
	}}
	r := gin.New()
	r.Use(withCaller())
	r.GET("/events/:id", NewJournalHandler(log).ByAggregate)

	w := serve(r, http.MethodGet, "/events/"+orderID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w).Data.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "SalesOrderConfirmed", items[0].(map[string]any)["event_type"])
}

func TestAuthHandler(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	h := NewAuthHandler(blacklist)

	var jti string
	r := gin.New()
	r.Use(withCaller("accountant"), func(c *gin.Context) {
		jti = middleware.Claims(c).ID
		c.Next()
	})
	r.GET("/me", h.Me)
	r.POST("/logout", h.Logout)

	w := serve(r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w).Data.(map[string]any)
	assert.Equal(t, testTenant.String(), me["tenant_id"])
	assert.Equal(t, []any{"accountant"}, me["groups"])

	w = serve(r, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	revoked, err := blacklist.IsRevoked(context.Background(), jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	noRevocation := gin.New()
	noRevocation.Use(withCaller())
	noRevocation.POST("/logout", NewAuthHandler(nil).Logout)
	assert.Equal(t, http.StatusServiceUnavailable, serve(noRevocation, http.MethodPost, "/logout", nil).Code)
}

func TestQueryLimit(t *testing.T) {
	tests := map[string]int{"": 20, "abc": 20, "0": 20, "5": 5, "500": 100}
	for raw, want := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?limit="+raw, nil)
		assert.Equal(t, want, queryLimit(c, 20, 100), raw)
	}
}

// validationError validates in against its binding tags
func validationError(in any) error {
	v := validator.New()
	v.SetTagName("binding")
	return v.Struct(in)
}
