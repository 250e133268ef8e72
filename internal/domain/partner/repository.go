package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// PartnerRepository defines persistence for partners and their bank accounts
type PartnerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Partner, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Partner, error)
	FindByRef(ctx context.Context, tenantID uuid.UUID, ref string) (*Partner, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Partner, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, partner *Partner) error
}

// CompanyRepository defines persistence for companies
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	FindAll(ctx context.Context) ([]Company, error)
	// FindNeedingSetup returns companies missing a dropship or purchase request record
	FindNeedingSetup(ctx context.Context) ([]Company, error)
	Save(ctx context.Context, company *Company) error
}
