package ports

import (
	"context"
	"time"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// PatientInput carries the editable fields of a patient record.
type PatientInput struct {
	Name      string
	BirthDate time.Time
	Diagnosis string
	Treatment string
	Doctor    string
}

// ImportRecord is one loosely typed entry of a JSON import payload.
type ImportRecord map[string]any

// ImportInput carries a JSON import request.
type ImportInput struct {
	Records        []ImportRecord
	Actor          string
	IdempotencyKey string
}

// ImportResult reports how many records were stored.
type ImportResult struct {
	Imported int
	// Replayed is true when the idempotency key matched an earlier import.
	Replayed bool
}

// DashboardInput carries raw dashboard query parameters.
type DashboardInput struct {
	FromDate string
	ToDate   string
	Search   string
}

// DashboardResult is the data behind the dashboard view.
type DashboardResult struct {
	TotalPatients int
	Patients      []*domain.Patient
}

// PatientService defines use-case operations on patient records.
type PatientService interface {
	List(ctx context.Context) ([]*domain.Patient, error)
	Get(ctx context.Context, id int64) (*domain.Patient, error)
	Create(ctx context.Context, in PatientInput, actor string) (*domain.Patient, error)
	Update(ctx context.Context, id int64, in PatientInput, actor string) (*domain.Patient, error)
	Delete(ctx context.Context, id int64, actor string) error
	Dashboard(ctx context.Context, in DashboardInput) (*DashboardResult, error)
	Import(ctx context.Context, in ImportInput) (*ImportResult, error)
	ImportDemo(ctx context.Context, actor string) (int, error)
}
