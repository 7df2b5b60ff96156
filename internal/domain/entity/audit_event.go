package entity

import "time"

// Tipos de evento de auditoría del motor.
const (
	AuditScheduleGenerated   = "SCHEDULE_GENERATED"
	AuditScheduleRegenerated = "SCHEDULE_REGENERATED"
	AuditInstallmentPaid     = "INSTALLMENT_PAID"
	AuditPaymentApplied      = "PAYMENT_APPLIED"
	AuditPaymentUnmatched    = "PAYMENT_UNMATCHED"
	AuditCreditDeposited     = "CREDIT_DEPOSITED"
	AuditBorrowerStatus      = "BORROWER_STATUS_CHANGED"
	AuditLoanStatus          = "LOAN_STATUS_CHANGED"
	AuditConsistencyFinding  = "CONSISTENCY_FINDING"
	AuditConsistencyRepair   = "CONSISTENCY_REPAIR"
)

// AuditEvent es un registro append-only de cada transición de estado del
// motor: toda mutación de cuotas debe poder explicarse después del hecho.
type AuditEvent struct {
	ID         string
	Kind       string
	EntityType string // LOAN | INSTALLMENT | PAYMENT | BORROWER
	EntityID   string
	OldValue   string
	NewValue   string
	Detail     string
	CreatedAt  time.Time
}
