package integration

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExternalMapping(t *testing.T) {
	tenantID := uuid.New()
	localID := uuid.New()

	t.Run("Valid mapping creation", func(t *testing.T) {
		m, err := NewExternalMapping(tenantID, LegacyModelCategory, 42, localID)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, m.ID)
		assert.Equal(t, LegacyModelCategory, m.Model)
		assert.Equal(t, int64(42), m.ExternalID)
		assert.Equal(t, localID, m.LocalID)
		assert.Equal(t, SyncStatusPending, m.LastSyncStatus)
	})

	tests := []struct {
		name     string
		tenantID uuid.UUID
		model    LegacyModel
		extID    int64
		localID  uuid.UUID
		want     error
	}{
		{"Invalid tenant ID", uuid.Nil, LegacyModelCategory, 1, localID, ErrMappingInvalidTenantID},
		{"Invalid model", tenantID, LegacyModel("stock.move"), 1, localID, ErrMappingInvalidModel},
		{"Zero external ID", tenantID, LegacyModelPartner, 0, localID, ErrMappingInvalidExternalID},
		{"Invalid local ID", tenantID, LegacyModelPartner, 1, uuid.Nil, ErrMappingInvalidLocalID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExternalMapping(tt.tenantID, tt.model, tt.extID, tt.localID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExternalMapping_IsStale(t *testing.T) {
	m, err := NewExternalMapping(uuid.New(), LegacyModelPartner, 7, uuid.New())
	require.NoError(t, err)
	written := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, m.IsStale(written), "never synced")

	m.RecordSyncSuccess(written)
	assert.False(t, m.IsStale(written))
	assert.True(t, m.IsStale(written.Add(time.Second)))

	m.RecordSyncFailure("boom")
	assert.True(t, m.IsStale(written))
	assert.Equal(t, SyncStatusFailed, m.LastSyncStatus)
	assert.Equal(t, "boom", m.LastSyncError)
}

func TestSyncResult_Finish(t *testing.T) {
	now := time.Now()

	r := SyncResult{Model: LegacyModelCategory, TotalCount: 3}
	r.Finish(now)
	assert.Equal(t, SyncStatusSuccess, r.Status)

	r.Fail(5, errors.New("bad code"))
	r.Finish(now)
	assert.Equal(t, SyncStatusPartial, r.Status)
	require.Len(t, r.FailedItems, 1)
	assert.Equal(t, int64(5), r.FailedItems[0].ExternalID)

	all := SyncResult{TotalCount: 1}
	all.Fail(1, errors.New("x"))
	all.Finish(now)
	assert.Equal(t, SyncStatusFailed, all.Status)
}

func TestLegacyModel_IsValid(t *testing.T) {
	for _, m := range SyncOrder {
		assert.True(t, m.IsValid(), m.String())
	}
	assert.False(t, LegacyModel("").IsValid())
}
