// Package metrics defines the custom Prometheus metrics of the clinic records
// service. HTTP request metrics come from echoprometheus in the router; the
// collectors here cover authentication, patient mutations, imports and the
// audit dispatcher.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/klinik-sehat/clinic-records/internal/core/auth"
)

const namespace = "clinic"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthFailuresTotal counts rejected requests on protected routes.
// Label:
//   - reason: "missing", "expired", "invalid", "subject", "forbidden" or "error"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests denied by the authentication or role gate.",
	},
	[]string{"reason"},
)

// ── Patient metrics ───────────────────────────────────────────────────────────

// PatientMutationsTotal counts successful patient writes.
// Label:
//   - action: "create", "update", "delete" or "import"
var PatientMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "patient_mutations_total",
		Help:      "Total number of patient record mutations, by action.",
	},
	[]string{"action"},
)

// PatientsImportedTotal counts records stored by JSON and demo imports.
var PatientsImportedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "patients_imported_total",
		Help:      "Total number of patient records stored by imports.",
	},
)

// ImportDedupTotal counts idempotency decisions for keyed imports.
// Label:
//   - result: "hit" (replayed) or "miss"
var ImportDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_dedup_total",
		Help:      "Total number of keyed import lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events as they move through the dispatcher.
// Label:
//   - result: "queued", "written" or "failed"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by dispatcher outcome.",
	},
	[]string{"result"},
)

// AuditObserver feeds dispatcher signals into AuditEventsTotal.
type AuditObserver struct{}

func (AuditObserver) AuditQueued()  { AuditEventsTotal.WithLabelValues("queued").Inc() }
func (AuditObserver) AuditWritten() { AuditEventsTotal.WithLabelValues("written").Inc() }
func (AuditObserver) AuditFailed()  { AuditEventsTotal.WithLabelValues("failed").Inc() }

// AuthFailureReason maps a token resolution error to a low-cardinality label.
func AuthFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		return "missing"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		return "invalid"
	case errors.Is(err, auth.ErrSubjectMissing), errors.Is(err, auth.ErrSubjectUnknown):
		return "subject"
	default:
		return "error"
	}
}
