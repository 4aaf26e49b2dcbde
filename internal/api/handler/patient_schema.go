package handler

import (
	"time"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

// patientForm is the create/edit form posted by the patient pages.
type patientForm struct {
	Name      string `form:"nama"          validate:"required,max=200"`
	BirthDate string `form:"tanggal_lahir" validate:"required,datetime=2006-01-02"`
	Diagnosis string `form:"diagnosis"     validate:"required"`
	Treatment string `form:"tindakan"      validate:"required"`
	Doctor    string `form:"dokter"        validate:"required,max=100"`
}

// toInput converts a validated form into service input.
func (f patientForm) toInput() (ports.PatientInput, error) {
	birth, err := time.Parse(domain.DateLayout, f.BirthDate)
	if err != nil {
		return ports.PatientInput{}, &ValidationError{Msg: "tanggal_lahir must be a date in YYYY-MM-DD format"}
	}
	return ports.PatientInput{
		Name:      f.Name,
		BirthDate: birth,
		Diagnosis: f.Diagnosis,
		Treatment: f.Treatment,
		Doctor:    f.Doctor,
	}, nil
}

type dashboardQuery struct {
	FromDate string `query:"from_date"`
	ToDate   string `query:"to_date"`
	Search   string `query:"search"`
}

type importResponse struct {
	Imported int  `json:"imported"`
	Replayed bool `json:"replayed"`
}
