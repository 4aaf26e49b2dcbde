package view

import "github.com/klinik-sehat/clinic-records/internal/core/domain"

// Every page carries User so the layout can render the navigation bar.

type LoginPage struct {
	User  *domain.User
	Error string
}

type DashboardPage struct {
	User          *domain.User
	TotalPatients int
	Patients      []*domain.Patient
	FromDate      string
	ToDate        string
	Search        string
}

type PatientListPage struct {
	User     *domain.User
	Patients []*domain.Patient
	Imported int
	CanEdit  bool
}

type PatientFormPage struct {
	User    *domain.User
	Patient *domain.Patient
}
