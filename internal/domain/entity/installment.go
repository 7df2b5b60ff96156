package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una cuota.
const (
	InstallmentStatusPending = "PENDING"
	InstallmentStatusPartial = "PARTIAL"
	InstallmentStatusPaid    = "PAID"
)

// Installment representa una cuota del plan de pagos de un préstamo.
//
// Invariantes:
//   - los números de secuencia de un préstamo forman el rango contiguo
//     1..InstallmentCount sin duplicados;
//   - PrincipalAmount + InterestAmount == ScheduledAmount en cada cuota
//     (el ajuste de redondeo se absorbe en la última);
//   - Status == PAID si y solo si AmountPaid >= ScheduledAmount.
//
// Las cuotas se crean en bloque por el generador, las muta únicamente el
// conciliador de pagos y solo se eliminan por una regeneración auditada.
type Installment struct {
	ID              string
	LoanID          string
	Sequence        int // 1..N, único por préstamo
	DueDate         time.Time
	ScheduledAmount decimal.Decimal
	PrincipalAmount decimal.Decimal
	InterestAmount  decimal.Decimal
	AmountPaid      decimal.Decimal
	PaidAt          *time.Time // fecha en que quedó totalmente pagada
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Outstanding devuelve el saldo pendiente de la cuota (nunca negativo).
func (i *Installment) Outstanding() decimal.Decimal {
	rest := i.ScheduledAmount.Sub(i.AmountPaid)
	if rest.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return rest
}

// RecomputeStatus recalcula el estado a partir del monto pagado y fija o
// limpia la fecha de pago total.
func (i *Installment) RecomputeStatus(now time.Time) {
	switch {
	case i.AmountPaid.GreaterThanOrEqual(i.ScheduledAmount):
		i.Status = InstallmentStatusPaid
		if i.PaidAt == nil {
			paidAt := now
			i.PaidAt = &paidAt
		}
	case i.AmountPaid.GreaterThan(decimal.Zero):
		i.Status = InstallmentStatusPartial
		i.PaidAt = nil
	default:
		i.Status = InstallmentStatusPending
		i.PaidAt = nil
	}
}

// IsOverdue indica si la cuota está en mora a la fecha dada
// (vencida y no pagada por completo).
func (i *Installment) IsOverdue(today time.Time) bool {
	return i.Status != InstallmentStatusPaid && i.DueDate.Before(today)
}
