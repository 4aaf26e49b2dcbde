package service

import (
	"strings"
	"time"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

// Import payload keys. They match what external clinic tools already send.
const (
	importKeyName      = "nama"
	importKeyBirthDate = "tanggal_lahir"
	importKeyVisitAt   = "tanggal_kunjungan"
	importKeyDiagnosis = "diagnosis"
	importKeyTreatment = "tindakan"
	importKeyDoctor    = "dokter"
)

const (
	defaultDiagnosis = "General Checkup"
	defaultTreatment = "Consultation"
)

// isoLayouts are tried in order when parsing import timestamps. Layouts
// without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	domain.DateLayout,
}

// patientFromImport maps one payload entry. Entries without a name are
// rejected; unparseable dates fall back to defaults instead of failing.
func patientFromImport(rec ports.ImportRecord, actor string, now time.Time) (*domain.Patient, bool) {
	name, _ := rec[importKeyName].(string)
	if name == "" {
		return nil, false
	}

	p := &domain.Patient{
		Name:      name,
		BirthDate: truncateDay(now),
		VisitAt:   now,
		Diagnosis: stringOr(rec, importKeyDiagnosis, defaultDiagnosis),
		Treatment: stringOr(rec, importKeyTreatment, defaultTreatment),
		Doctor:    stringOr(rec, importKeyDoctor, actor),
		CreatedAt: now,
	}

	if raw, ok := rec[importKeyBirthDate].(string); ok {
		if t, ok := parseISO(raw); ok {
			p.BirthDate = truncateDay(t)
		}
	}
	if raw, ok := rec[importKeyVisitAt].(string); ok {
		if t, ok := parseISO(raw); ok {
			p.VisitAt = t.UTC()
		}
	}
	return p, true
}

func stringOr(rec ports.ImportRecord, key, fallback string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return fallback
}

func parseISO(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func demoPatients(now time.Time) []*domain.Patient {
	mk := func(name string, birth time.Time, diagnosis, treatment, doctor string) *domain.Patient {
		return &domain.Patient{
			Name:      name,
			BirthDate: birth,
			VisitAt:   now,
			Diagnosis: diagnosis,
			Treatment: treatment,
			Doctor:    doctor,
			CreatedAt: now,
		}
	}
	return []*domain.Patient{
		mk("John Doe", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC), "Flu", "Medication and rest", "Dr. Smith"),
		mk("Jane Smith", time.Date(1985, 8, 22, 0, 0, 0, 0, time.UTC), "Fever", "Paracetamol and monitoring", "Dr. Johnson"),
		mk("Bob Wilson", time.Date(1978, 12, 3, 0, 0, 0, 0, time.UTC), "Hypertension", "Blood pressure medication", "Dr. Brown"),
	}
}
