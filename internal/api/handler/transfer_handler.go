package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/klinik-sehat/clinic-records/internal/api/metrics"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
	"github.com/klinik-sehat/clinic-records/internal/infrastructure/export"
)

// TransferHandler serves spreadsheet export and JSON import.
type TransferHandler struct {
	service ports.PatientService
}

func NewTransferHandler(service ports.PatientService) *TransferHandler {
	return &TransferHandler{service: service}
}

// Export handles GET /export.
//
// @Summary   Export patients as xlsx
// @Tags      transfer
// @Produce   application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security  BearerAuth
// @Success   200  {file}    file
// @Failure   401  {object}  map[string]string
// @Router    /export [get]
func (h *TransferHandler) Export(c echo.Context) error {
	if _, err := identity(c); err != nil {
		return err
	}

	patients, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WritePatients(&buf, patients); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

// Import handles POST /import.
//
// @Summary      Import patients from JSON
// @Description  Entries without "nama" are skipped. Missing fields get defaults; unparsable dates fall back to now.
// @Tags         transfer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header  string               false  "Replays return the first result"
// @Param        body             body    []map[string]interface{}  true   "Patient entries"
// @Success      303
// @Success      200  {object}  importResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /import [post]
func (h *TransferHandler) Import(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}

	var records []ports.ImportRecord
	if err := (&echo.DefaultBinder{}).BindBody(c, &records); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	key := c.Request().Header.Get("Idempotency-Key")
	res, err := h.service.Import(c.Request().Context(), ports.ImportInput{
		Records:        records,
		Actor:          user.Username,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}

	if key != "" {
		result := "miss"
		if res.Replayed {
			result = "hit"
		}
		metrics.ImportDedupTotal.WithLabelValues(result).Inc()
	}
	if !res.Replayed {
		metrics.PatientsImportedTotal.Add(float64(res.Imported))
		metrics.PatientMutationsTotal.WithLabelValues(string(domain.AuditImport)).Inc()
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, importResponse{Imported: res.Imported, Replayed: res.Replayed})
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/patients?imported=%d", res.Imported))
}

// ImportDemo handles POST /import/dummy.
//
// @Summary   Insert demo patients
// @Tags      transfer
// @Security  BearerAuth
// @Success   303
// @Failure   403  {object}  map[string]string
// @Router    /import/dummy [post]
func (h *TransferHandler) ImportDemo(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}

	n, err := h.service.ImportDemo(c.Request().Context(), user.Username)
	if err != nil {
		return err
	}
	metrics.PatientsImportedTotal.Add(float64(n))
	metrics.PatientMutationsTotal.WithLabelValues(string(domain.AuditImport)).Inc()
	return c.Redirect(http.StatusSeeOther, "/patients")
}
