package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/klinik-sehat/clinic-records/internal/api/metrics"
	"github.com/klinik-sehat/clinic-records/internal/api/view"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

// PatientHandler serves the patient pages and form posts.
type PatientHandler struct {
	service ports.PatientService
}

func NewPatientHandler(service ports.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

// List handles GET /patients.
//
// @Summary   List patients
// @Tags      patients
// @Produce   html
// @Security  BearerAuth
// @Param     imported  query  int  false  "Number of records stored by the preceding import"
// @Success   200
// @Failure   401  {object}  map[string]string
// @Router    /patients [get]
func (h *PatientHandler) List(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}

	patients, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}

	imported, _ := strconv.Atoi(c.QueryParam("imported"))
	return c.Render(http.StatusOK, view.PatientList, view.PatientListPage{
		User:     user,
		Patients: patients,
		Imported: imported,
		CanEdit:  user.Role == domain.RoleDoctor,
	})
}

// CreateForm handles GET /patients/create.
func (h *PatientHandler) CreateForm(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PatientCreate, view.PatientFormPage{User: user})
}

// Create handles POST /patients.
//
// @Summary   Create a patient record
// @Tags      patients
// @Accept    x-www-form-urlencoded
// @Security  BearerAuth
// @Param     nama           formData  string  true  "Name"
// @Param     tanggal_lahir  formData  string  true  "Birth date (YYYY-MM-DD)"
// @Param     diagnosis      formData  string  true  "Diagnosis"
// @Param     tindakan       formData  string  true  "Treatment"
// @Param     dokter         formData  string  true  "Doctor"
// @Success   303
// @Failure   401  {object}  map[string]string
// @Failure   403  {object}  map[string]string
// @Failure   422  {object}  map[string]string
// @Router    /patients [post]
func (h *PatientHandler) Create(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}
	in, err := bindPatientForm(c)
	if err != nil {
		return err
	}

	if _, err := h.service.Create(c.Request().Context(), in, user.Username); err != nil {
		return err
	}
	metrics.PatientMutationsTotal.WithLabelValues(string(domain.AuditCreate)).Inc()
	return c.Redirect(http.StatusSeeOther, "/patients")
}

// EditForm handles GET /patients/:id/edit.
func (h *PatientHandler) EditForm(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}
	id, err := patientID(c)
	if err != nil {
		return err
	}

	p, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PatientEdit, view.PatientFormPage{User: user, Patient: p})
}

// Update handles POST /patients/:id.
//
// @Summary   Update a patient record
// @Tags      patients
// @Accept    x-www-form-urlencoded
// @Security  BearerAuth
// @Param     id             path      int     true  "Patient id"
// @Param     nama           formData  string  true  "Name"
// @Param     tanggal_lahir  formData  string  true  "Birth date (YYYY-MM-DD)"
// @Param     diagnosis      formData  string  true  "Diagnosis"
// @Param     tindakan       formData  string  true  "Treatment"
// @Param     dokter         formData  string  true  "Doctor"
// @Success   303
// @Failure   403  {object}  map[string]string
// @Failure   404  {object}  map[string]string
// @Router    /patients/{id} [post]
func (h *PatientHandler) Update(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}
	id, err := patientID(c)
	if err != nil {
		return err
	}
	in, err := bindPatientForm(c)
	if err != nil {
		return err
	}

	if _, err := h.service.Update(c.Request().Context(), id, in, user.Username); err != nil {
		return err
	}
	metrics.PatientMutationsTotal.WithLabelValues(string(domain.AuditUpdate)).Inc()
	return c.Redirect(http.StatusSeeOther, "/patients")
}

// Delete handles POST /patients/:id/delete.
//
// @Summary   Delete a patient record
// @Tags      patients
// @Security  BearerAuth
// @Param     id  path  int  true  "Patient id"
// @Success   303
// @Failure   403  {object}  map[string]string
// @Failure   404  {object}  map[string]string
// @Router    /patients/{id}/delete [post]
func (h *PatientHandler) Delete(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}
	id, err := patientID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id, user.Username); err != nil {
		return err
	}
	metrics.PatientMutationsTotal.WithLabelValues(string(domain.AuditDelete)).Inc()
	return c.Redirect(http.StatusSeeOther, "/patients")
}

// Dashboard handles GET /dashboard.
//
// @Summary   Dashboard
// @Tags      patients
// @Produce   html
// @Security  BearerAuth
// @Param     from_date  query  string  false  "First visit day (YYYY-MM-DD)"
// @Param     to_date    query  string  false  "Last visit day, inclusive (YYYY-MM-DD)"
// @Param     search     query  string  false  "Case-insensitive name substring"
// @Success   200
// @Failure   401  {object}  map[string]string
// @Router    /dashboard [get]
func (h *PatientHandler) Dashboard(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}

	var q dashboardQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	res, err := h.service.Dashboard(c.Request().Context(), ports.DashboardInput{
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Search:   q.Search,
	})
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, view.Dashboard, view.DashboardPage{
		User:          user,
		TotalPatients: res.TotalPatients,
		Patients:      res.Patients,
		FromDate:      q.FromDate,
		ToDate:        q.ToDate,
		Search:        q.Search,
	})
}

func bindPatientForm(c echo.Context) (ports.PatientInput, error) {
	var form patientForm
	if err := (&echo.DefaultBinder{}).BindBody(c, &form); err != nil {
		return ports.PatientInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&form); err != nil {
		return ports.PatientInput{}, err
	}
	return form.toInput()
}
