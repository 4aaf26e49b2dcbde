package domain

import "time"

// DateLayout is the wire and form format for calendar dates.
const DateLayout = "2006-01-02"

// Patient is a single visit record.
type Patient struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	BirthDate time.Time  `json:"birth_date"`
	VisitAt   time.Time  `json:"visit_at"`
	Diagnosis string     `json:"diagnosis"`
	Treatment string     `json:"treatment"`
	Doctor    string     `json:"doctor"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// PatientFilter narrows the dashboard listing. Zero values disable a clause.
type PatientFilter struct {
	// VisitFrom and VisitTo bound visit time as [VisitFrom, VisitTo).
	VisitFrom time.Time
	VisitTo   time.Time
	// Search is a case-insensitive substring match on Name.
	Search string
}

// HasRange reports whether both ends of the visit range are set.
func (f PatientFilter) HasRange() bool {
	return !f.VisitFrom.IsZero() && !f.VisitTo.IsZero()
}
