package dto

import "github.com/shopspring/decimal"

// GenerateScheduleRequest body para POST /api/loans/:id/schedule.
// Regenerate anula el plan anterior antes de generar (solo sin pagos previos).
type GenerateScheduleRequest struct {
	Regenerate bool `json:"regenerate"`
}

// ApplyPaymentRequest body para POST /api/payments.
// TargetLoanID y TargetSequence restringen la asignación a una cuota puntual;
// si van vacíos aplica la cascada por vencimiento más antiguo.
type ApplyPaymentRequest struct {
	BorrowerNID    string          `json:"borrower_nid"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    string          `json:"payment_date"` // YYYY-MM-DD; vacío = hoy
	Reference      string          `json:"reference"`
	TargetLoanID   string          `json:"target_loan_id,omitempty"`
	TargetSequence *int            `json:"target_sequence,omitempty"`
}

// ReversePaymentRequest body para POST /api/payments/reversals.
// Amount va en valor absoluto; el ajuste se registra con monto negativo.
type ReversePaymentRequest struct {
	BorrowerNID string          `json:"borrower_nid"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"` // YYYY-MM-DD; vacío = hoy
	Reference   string          `json:"reference"`
	// OriginalReference: referencia del pago que se corrige (trazabilidad).
	OriginalReference string `json:"original_reference,omitempty"`
}

// AllocationResponse detalle de lo aplicado a una cuota.
type AllocationResponse struct {
	InstallmentID string          `json:"installment_id"`
	LoanID        string          `json:"loan_id"`
	Sequence      int             `json:"sequence"`
	Applied       decimal.Decimal `json:"applied"`
	NewStatus     string          `json:"new_status"`
}

// ReconciliationResult resultado de conciliar un pago contra las cuotas.
// CreditRemainder es el remanente que quedó como saldo a favor (nunca se
// descarta en silencio).
type ReconciliationResult struct {
	PaymentID       string               `json:"payment_id"`
	Reference       string               `json:"reference"`
	Status          string               `json:"status"` // MATCHED | PARTIALLY_MATCHED | UNMATCHED
	Allocations     []AllocationResponse `json:"allocations"`
	CreditRemainder decimal.Decimal      `json:"credit_remainder"`
	BorrowerStatus  string               `json:"borrower_status"`
}

// InstallmentResponse cuota en respuestas.
type InstallmentResponse struct {
	ID              string          `json:"id"`
	LoanID          string          `json:"loan_id"`
	Sequence        int             `json:"sequence"`
	DueDate         string          `json:"due_date"`
	ScheduledAmount decimal.Decimal `json:"scheduled_amount"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	Status          string          `json:"status"`
}

// ScheduleSummary estadísticas agregadas del plan de un préstamo.
type ScheduleSummary struct {
	TotalInstallments int             `json:"total_installments"`
	PaidInstallments  int             `json:"paid_installments"`
	OverdueCount      int             `json:"overdue_count"`
	TotalScheduled    decimal.Decimal `json:"total_scheduled"`
	TotalPrincipal    decimal.Decimal `json:"total_principal"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Outstanding       decimal.Decimal `json:"outstanding"`
}

// ScheduleResponse plan completo para GET /api/loans/:id/schedule.
type ScheduleResponse struct {
	LoanID       string                `json:"loan_id"`
	Installments []InstallmentResponse `json:"installments"`
	Summary      ScheduleSummary       `json:"summary"`
}

// DelinquencyResponse estado de mora de un deudor.
type DelinquencyResponse struct {
	BorrowerID   string `json:"borrower_id"`
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
	OverdueCount int    `json:"overdue_count"`
	DaysPastDue  int    `json:"days_past_due"`
}

// FindingResponse hallazgo de la auditoría de consistencia.
type FindingResponse struct {
	LoanID   string `json:"loan_id"`
	Kind     string `json:"kind"` // MISSING | EXCESS | ORPHANED
	Sequence int    `json:"sequence,omitempty"`
	Detail   string `json:"detail"`
	Repaired bool   `json:"repaired"`
}

// ErrorResponse respuesta de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RegisterBorrowerRequest body para POST /api/borrowers.
type RegisterBorrowerRequest struct {
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
}

// BorrowerResponse deudor en respuestas.
type BorrowerResponse struct {
	ID         string `json:"id"`
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

// RegisterLoanRequest body para POST /api/loans.
type RegisterLoanRequest struct {
	BorrowerID       string          `json:"borrower_id"`
	Principal        decimal.Decimal `json:"principal"`
	AnnualRate       decimal.Decimal `json:"annual_rate"` // porcentaje anual; cero = sin interés
	InstallmentCount int             `json:"installment_count"`
	Frequency        string          `json:"frequency"`  // WEEKLY | BIWEEKLY | MONTHLY
	StartDate        string          `json:"start_date"` // YYYY-MM-DD
}

// LoanResponse préstamo en respuestas.
type LoanResponse struct {
	ID               string          `json:"id"`
	BorrowerID       string          `json:"borrower_id"`
	Principal        decimal.Decimal `json:"principal"`
	AnnualRate       decimal.Decimal `json:"annual_rate"`
	InstallmentCount int             `json:"installment_count"`
	Frequency        string          `json:"frequency"`
	StartDate        string          `json:"start_date"`
	Status           string          `json:"status"`
}

// LoanProgress préstamo con el avance agregado de su plan.
type LoanProgress struct {
	Loan    LoanResponse    `json:"loan"`
	Summary ScheduleSummary `json:"summary"`
}

// PortfolioResponse cartera completa de un deudor: sus préstamos con avance
// y el saldo a favor vigente.
type PortfolioResponse struct {
	BorrowerID    string          `json:"borrower_id"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
	Loans         []LoanProgress  `json:"loans"`
}

// CreditBalanceResponse saldo a favor vigente del deudor.
type CreditBalanceResponse struct {
	BorrowerID string          `json:"borrower_id"`
	Balance    decimal.Decimal `json:"balance"`
}

// PaymentResponse pago en respuestas (listado de no conciliados).
type PaymentResponse struct {
	ID          string          `json:"id"`
	BorrowerNID string          `json:"borrower_nid"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Reference   string          `json:"reference"`
	Status      string          `json:"status"`
}

// AuditEventResponse evento del historial de auditoría.
type AuditEventResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	OldValue   string `json:"old_value,omitempty"`
	NewValue   string `json:"new_value,omitempty"`
	Detail     string `json:"detail,omitempty"`
	CreatedAt  string `json:"created_at"`
}
