package partner

import (
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

const AggregateTypePartner = "Partner"

const EventTypePartnerCreated = "PartnerCreated"

// PartnerCreatedEvent is published when a partner is created
type PartnerCreatedEvent struct {
	shared.BaseDomainEvent
	PartnerID   uuid.UUID   `json:"partner_id"`
	Name        string      `json:"name"`
	CompanyType CompanyType `json:"company_type"`
}

// NewPartnerCreatedEvent creates a new PartnerCreatedEvent
func NewPartnerCreatedEvent(p *Partner) *PartnerCreatedEvent {
	return &PartnerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartnerCreated, AggregateTypePartner, p.ID, p.TenantID),
		PartnerID:       p.ID,
		Name:            p.Name,
		CompanyType:     p.CompanyType,
	}
}
