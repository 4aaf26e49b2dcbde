package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

// AuditSink accepts audit events for asynchronous persistence.
type AuditSink interface {
	Enqueue(event domain.AuditEvent)
}

// ImportDeduper remembers the outcome of imports by idempotency key.
// Reserve must be atomic: exactly one caller wins a given key.
type ImportDeduper interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Lookup(ctx context.Context, key string) (imported int, found bool, err error)
	Remember(ctx context.Context, key string, imported int) error
	Release(ctx context.Context, key string) error
}

// PatientService implements the patient record use cases.
type PatientService struct {
	repo  ports.PatientRepository
	audit AuditSink
	dedup ImportDeduper
	log   zerolog.Logger
	now   func() time.Time
}

// NewPatientService wires a PatientService. audit and dedup may be nil.
func NewPatientService(repo ports.PatientRepository, audit AuditSink, dedup ImportDeduper, log zerolog.Logger) *PatientService {
	return &PatientService{repo: repo, audit: audit, dedup: dedup, log: log, now: time.Now}
}

func (s *PatientService) List(ctx context.Context) ([]*domain.Patient, error) {
	return s.repo.List(ctx, domain.PatientFilter{})
}

func (s *PatientService) Get(ctx context.Context, id int64) (*domain.Patient, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PatientService) Create(ctx context.Context, in ports.PatientInput, actor string) (*domain.Patient, error) {
	now := s.now().UTC()
	p := &domain.Patient{
		Name:      in.Name,
		BirthDate: in.BirthDate,
		VisitAt:   now,
		Diagnosis: in.Diagnosis,
		Treatment: in.Treatment,
		Doctor:    in.Doctor,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error().Err(err).Msg("failed to create patient")
		return nil, err
	}

	s.record(p.ID, domain.AuditCreate, actor)
	s.log.Info().Int64("patient_id", p.ID).Str("actor", actor).Msg("patient created")
	return p, nil
}

func (s *PatientService) Update(ctx context.Context, id int64, in ports.PatientInput, actor string) (*domain.Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.Name = in.Name
	p.BirthDate = in.BirthDate
	p.Diagnosis = in.Diagnosis
	p.Treatment = in.Treatment
	p.Doctor = in.Doctor
	p.UpdatedAt = &now

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.record(p.ID, domain.AuditUpdate, actor)
	s.log.Info().Int64("patient_id", p.ID).Str("actor", actor).Msg("patient updated")
	return p, nil
}

func (s *PatientService) Delete(ctx context.Context, id int64, actor string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(id, domain.AuditDelete, actor)
	s.log.Info().Int64("patient_id", id).Str("actor", actor).Msg("patient deleted")
	return nil
}

// Dashboard lists patients filtered by visit day range and name. The range
// applies only when both dates parse; to_date includes the whole day.
func (s *PatientService) Dashboard(ctx context.Context, in ports.DashboardInput) (*ports.DashboardResult, error) {
	filter := domain.PatientFilter{Search: strings.TrimSpace(in.Search)}

	from, errFrom := time.Parse(domain.DateLayout, strings.TrimSpace(in.FromDate))
	to, errTo := time.Parse(domain.DateLayout, strings.TrimSpace(in.ToDate))
	if errFrom == nil && errTo == nil {
		filter.VisitFrom = from
		filter.VisitTo = to.AddDate(0, 0, 1)
	}

	patients, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ports.DashboardResult{TotalPatients: len(patients), Patients: patients}, nil
}

// Import stores every payload entry that carries a name, filling defaults for
// missing fields. A repeated idempotency key returns the first result; a key
// whose first import is still running fails with domain.ErrImportInProgress.
func (s *PatientService) Import(ctx context.Context, in ports.ImportInput) (*ports.ImportResult, error) {
	claimed := false
	if in.IdempotencyKey != "" && s.dedup != nil {
		replay, ok, err := s.claimImport(ctx, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
		claimed = ok
	}

	now := s.now().UTC()
	patients := make([]*domain.Patient, 0, len(in.Records))
	for _, rec := range in.Records {
		p, ok := patientFromImport(rec, in.Actor, now)
		if !ok {
			continue
		}
		patients = append(patients, p)
	}

	if len(patients) > 0 {
		if err := s.repo.CreateMany(ctx, patients); err != nil {
			if claimed {
				s.releaseImport(in.IdempotencyKey)
			}
			return nil, fmt.Errorf("import patients: %w", err)
		}
		for _, p := range patients {
			s.record(p.ID, domain.AuditImport, in.Actor)
		}
	}

	if claimed {
		if err := s.dedup.Remember(ctx, in.IdempotencyKey, len(patients)); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to store import dedup key")
		}
	}

	s.log.Info().Int("imported", len(patients)).Int("received", len(in.Records)).Str("actor", in.Actor).Msg("patients imported")
	return &ports.ImportResult{Imported: len(patients)}, nil
}

// claimImport reserves key for this request. It returns a replayed result
// when an earlier import with the key already finished. claimed is false
// when the dedup store is unreachable and the import runs unguarded.
func (s *PatientService) claimImport(ctx context.Context, key string) (replay *ports.ImportResult, claimed bool, err error) {
	won, err := s.dedup.Reserve(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("import dedup unavailable, importing anyway")
		return nil, false, nil
	}
	if won {
		return nil, true, nil
	}

	n, found, err := s.dedup.Lookup(ctx, key)
	switch {
	case errors.Is(err, domain.ErrImportInProgress):
		return nil, false, err
	case err != nil:
		return nil, false, fmt.Errorf("import dedup lookup: %w", err)
	case !found:
		// Released or expired between Reserve and Lookup.
		return nil, false, domain.ErrImportInProgress
	}

	s.log.Info().Str("idempotency_key", key).Int("imported", n).Msg("idempotent import replay")
	return &ports.ImportResult{Imported: n, Replayed: true}, false, nil
}

func (s *PatientService) releaseImport(key string) {
	// The request context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.dedup.Release(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release import dedup key")
	}
}

// ImportDemo inserts a fixed set of demo patients.
func (s *PatientService) ImportDemo(ctx context.Context, actor string) (int, error) {
	now := s.now().UTC()
	patients := demoPatients(now)
	if err := s.repo.CreateMany(ctx, patients); err != nil {
		return 0, fmt.Errorf("import demo patients: %w", err)
	}
	for _, p := range patients {
		s.record(p.ID, domain.AuditImport, actor)
	}
	return len(patients), nil
}

func (s *PatientService) record(patientID int64, action domain.AuditAction, actor string) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(domain.AuditEvent{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Action:    action,
		Actor:     actor,
		At:        s.now().UTC(),
	})
}
