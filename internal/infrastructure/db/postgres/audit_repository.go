package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// AuditRepository implements ports.AuditRepository on PostgreSQL.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InsertAudit(ctx context.Context, e *domain.AuditEvent) error {
	query := `INSERT INTO patient_audit (id, patient_id, action, actor, at) VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, e.ID, e.PatientID, string(e.Action), e.Actor, e.At); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}
