package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(auditCollection)}
}

// InsertAudit persists one entry of the patient audit trail.
func (r *AuditRepository) InsertAudit(ctx context.Context, e *domain.AuditEvent) error {
	doc := bson.M{
		"_id":        e.ID,
		"patient_id": e.PatientID,
		"action":     string(e.Action),
		"actor":      e.Actor,
		"at":         e.At.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}
