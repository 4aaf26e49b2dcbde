// Package export renders patient records as spreadsheet downloads.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

const (
	// SheetName is the single worksheet of an export workbook.
	SheetName = "Patients"
	// ContentType is the media type of an xlsx workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// Filename is suggested to the client in Content-Disposition.
	Filename = "patients.xlsx"

	visitLayout = "2006-01-02 15:04:05"
)

// Header is the first row of every export.
var Header = []interface{}{"ID", "Nama", "Tanggal Lahir", "Tanggal Kunjungan", "Diagnosis", "Tindakan", "Dokter"}

// WritePatients writes an xlsx workbook with one row per patient to w.
func WritePatients(w io.Writer, patients []*domain.Patient) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetRow("A1", Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range patients {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row(p)); err != nil {
			return fmt.Errorf("write row %d: %w", p.ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func row(p *domain.Patient) []interface{} {
	var birth, visit string
	if !p.BirthDate.IsZero() {
		birth = p.BirthDate.Format(domain.DateLayout)
	}
	if !p.VisitAt.IsZero() {
		visit = p.VisitAt.Format(visitLayout)
	}
	return []interface{}{p.ID, p.Name, birth, visit, p.Diagnosis, p.Treatment, p.Doctor}
}
