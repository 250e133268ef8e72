package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAttributeService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("values keep request order", func(t *testing.T) {
		repo := new(MockProductAttributeRepository)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.ProductAttribute")).Return(nil)

		resp, err := NewAttributeService(repo).Create(ctx, tenantID, CreateAttributeRequest{
			Name:    "Color",
			Comment: "paint",
			Values:  []string{"Red", "Blue"},
		})

		require.NoError(t, err)
		assert.Equal(t, "Color [paint]", resp.DisplayName)
		require.Len(t, resp.Values, 2)
		assert.Equal(t, "Red", resp.Values[0].Name)
		assert.Less(t, resp.Values[0].Sequence, resp.Values[1].Sequence)
	})

	t.Run("duplicate value", func(t *testing.T) {
		repo := new(MockProductAttributeRepository)

		_, err := NewAttributeService(repo).Create(ctx, tenantID, CreateAttributeRequest{
			Name:   "Size",
			Values: []string{"M", "m"},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAttributeService_AddValue(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	attr, err := catalog.NewProductAttribute(tenantID, "Size", "")
	require.NoError(t, err)
	_, err = attr.AddValue("S")
	require.NoError(t, err)

	repo := new(MockProductAttributeRepository)
	repo.On("FindByIDForTenant", ctx, tenantID, attr.ID).Return(attr, nil)
	repo.On("Save", ctx, attr).Return(nil)

	resp, err := NewAttributeService(repo).AddValue(ctx, tenantID, attr.ID, AddAttributeValueRequest{Name: "L"})

	require.NoError(t, err)
	assert.Equal(t, "Size", resp.DisplayName)
	assert.Len(t, resp.Values, 2)
	repo.AssertExpectations(t)
}

func TestAttributeService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	attr, err := catalog.NewProductAttribute(tenantID, "Color", "")
	require.NoError(t, err)

	repo := new(MockProductAttributeRepository)
	filter := shared.Filter{}.Normalize()
	repo.On("FindAllForTenant", ctx, tenantID, filter).Return([]catalog.ProductAttribute{*attr}, nil)
	repo.On("CountForTenant", ctx, tenantID, filter).Return(int64(1), nil)

	items, total, err := NewAttributeService(repo).List(ctx, tenantID, shared.Filter{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Values)
}
