package domain

import "time"

// AuditAction names a mutation applied to a patient record.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
	AuditImport AuditAction = "import"
)

// AuditEvent records who changed which patient record and when.
type AuditEvent struct {
	ID        string      `json:"id"`
	PatientID int64       `json:"patient_id"`
	Action    AuditAction `json:"action"`
	Actor     string      `json:"actor"`
	At        time.Time   `json:"at"`
}
