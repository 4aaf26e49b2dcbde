package ports

import (
	"context"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// PatientRepository defines persistence for patient visit records.
// Lookups by id return domain.ErrPatientNotFound when nothing matches.
type PatientRepository interface {
	Create(ctx context.Context, p *domain.Patient) error
	// CreateMany inserts all records in one unit of work and sets their ids.
	CreateMany(ctx context.Context, ps []*domain.Patient) error
	FindByID(ctx context.Context, id int64) (*domain.Patient, error)
	Update(ctx context.Context, p *domain.Patient) error
	Delete(ctx context.Context, id int64) error
	// List returns records matching filter ordered by id.
	List(ctx context.Context, filter domain.PatientFilter) ([]*domain.Patient, error)
}

// AuditRepository persists the patient audit trail.
type AuditRepository interface {
	InsertAudit(ctx context.Context, event *domain.AuditEvent) error
}
