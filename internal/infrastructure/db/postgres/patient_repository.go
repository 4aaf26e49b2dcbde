package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

const patientColumns = `id, name, birth_date, visit_at, diagnosis, treatment, doctor, created_at, updated_at`

// PatientRepository implements ports.PatientRepository on PostgreSQL.
type PatientRepository struct {
	db *sql.DB
}

func NewPatientRepository(db *sql.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertPatient(ctx context.Context, q queryRower, p *domain.Patient) error {
	query := `INSERT INTO patients (name, birth_date, visit_at, diagnosis, treatment, doctor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := q.QueryRowContext(ctx, query,
		p.Name, nullDate(p.BirthDate), p.VisitAt, p.Diagnosis, p.Treatment, p.Doctor, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	return insertPatient(ctx, r.db, p)
}

// CreateMany inserts all patients in a single transaction.
func (r *PatientRepository) CreateMany(ctx context.Context, ps []*domain.Patient) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range ps {
		if err := insertPatient(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id int64) (*domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) Update(ctx context.Context, p *domain.Patient) error {
	query := `UPDATE patients
		SET name = $1, birth_date = $2, diagnosis = $3, treatment = $4, doctor = $5, updated_at = $6
		WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query,
		p.Name, nullDate(p.BirthDate), p.Diagnosis, p.Treatment, p.Doctor, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return expectAffected(res)
}

func (r *PatientRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return expectAffected(res)
}

func (r *PatientRepository) List(ctx context.Context, filter domain.PatientFilter) ([]*domain.Patient, error) {
	var (
		where []string
		args  []any
	)
	if filter.HasRange() {
		args = append(args, filter.VisitFrom, filter.VisitTo)
		where = append(where, fmt.Sprintf("visit_at >= $%d AND visit_at < $%d", len(args)-1, len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	query := `SELECT ` + patientColumns + ` FROM patients`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	out := []*domain.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPatient(s scanner) (*domain.Patient, error) {
	var (
		p         domain.Patient
		birthDate sql.NullTime
		updatedAt sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.Name, &birthDate, &p.VisitAt, &p.Diagnosis, &p.Treatment, &p.Doctor, &p.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if birthDate.Valid {
		p.BirthDate = birthDate.Time
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	return &p, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func nullDate(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
