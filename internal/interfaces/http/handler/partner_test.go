package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	partnerapp "github.com/qm/backend/internal/application/partner"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPartnerRepo struct {
	mock.Mock
}

func (m *mockPartnerRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Partner, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Partner), args.Error(1)
}

func (m *mockPartnerRepo) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]partner.Partner, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *mockPartnerRepo) FindByRef(ctx context.Context, tenantID uuid.UUID, ref string) (*partner.Partner, error) {
	args := m.Called(ctx, tenantID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Partner), args.Error(1)
}

func (m *mockPartnerRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Partner, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *mockPartnerRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPartnerRepo) Save(ctx context.Context, p *partner.Partner) error {
	return m.Called(ctx, p).Error(0)
}

func partnerEngine(repo *mockPartnerRepo) *gin.Engine {
	h := NewPartnerHandler(partnerapp.NewPartnerService(repo, zap.NewNop()))
	r := gin.New()
	r.Use(withCaller())
	r.POST("/partners", h.Create)
	r.GET("/partners", h.List)
	r.GET("/partners/:id", h.GetByID)
	return r
}

func TestPartnerHandler_Create(t *testing.T) {
	repo := new(mockPartnerRepo)
	repo.On("FindByRef", mock.Anything, testTenant, "C-001").Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(p *partner.Partner) bool {
		return p.TenantID == testTenant && p.Name == "Acme Trading"
	})).Return(nil)

	w := serve(partnerEngine(repo), http.MethodPost, "/partners", map[string]any{
		"name":         "Acme Trading",
		"company_type": "company",
		"ref":          "C-001",
		"is_customer":  true,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, "Acme Trading", data["name"])
	assert.Equal(t, "C-001", data["ref"])
	repo.AssertExpectations(t)
}

func TestPartnerHandler_CreateRejectsInput(t *testing.T) {
	repo := new(mockPartnerRepo)
	w := serve(partnerEngine(repo), http.MethodPost, "/partners", map[string]any{
		"company_type": "robot",
		"email":        "not-an-email",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := map[string]bool{}
	for _, d := range decode(t, w).Error.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["company_type"])
	assert.True(t, fields["email"])
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPartnerHandler_GetByIDNotFound(t *testing.T) {
	repo := new(mockPartnerRepo)
	id := uuid.New()
	repo.On("FindByIDForTenant", mock.Anything, testTenant, id).Return(nil, shared.ErrNotFound)

	w := serve(partnerEngine(repo), http.MethodGet, "/partners/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
}

func TestPartnerHandler_List(t *testing.T) {
	repo := new(mockPartnerRepo)
	items := []partner.Partner{{Name: "Acme"}, {Name: "Globex"}}
	repo.On("FindAllForTenant", mock.Anything, testTenant, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 2
	})).Return(items, nil)
	repo.On("CountForTenant", mock.Anything, testTenant, mock.Anything).Return(int64(5), nil)

	w := serve(partnerEngine(repo), http.MethodGet, "/partners?page=2&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(5), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Len(t, resp.Data, 2)

	w = serve(partnerEngine(repo), http.MethodGet, "/partners?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
