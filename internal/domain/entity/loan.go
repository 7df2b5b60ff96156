package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del préstamo.
const (
	LoanStatusDraft     = "DRAFT"
	LoanStatusInReview  = "IN_REVIEW"
	LoanStatusApproved  = "APPROVED"
	LoanStatusRejected  = "REJECTED"
	LoanStatusCancelled = "CANCELLED"
)

// Frecuencias de pago soportadas.
const (
	FrequencyWeekly   = "WEEKLY"   // cada 7 días
	FrequencyBiweekly = "BIWEEKLY" // quincenal, cada 15 días
	FrequencyMonthly  = "MONTHLY"  // aritmética de mes calendario, sin deriva
)

// Períodos por año según la frecuencia (para convertir tasa anual a periódica).
const (
	PeriodsPerYearWeekly   = 52
	PeriodsPerYearBiweekly = 24
	PeriodsPerYearMonthly  = 12
)

// Loan representa un contrato de financiación aprobado.
//
// Un préstamo CANCELLED congela sus cuotas: las filas no se tocan (se preserva
// el historial) pero quedan excluidas de la asignación de pagos y del conteo
// de mora, porque solo los préstamos APPROVED son elegibles.
type Loan struct {
	ID               string
	BorrowerID       string
	Principal        decimal.Decimal
	AnnualRate       decimal.Decimal // porcentaje anual (18 = 18% EA); cero es el caso dominante
	InstallmentCount int
	Frequency        string // WEEKLY | BIWEEKLY | MONTHLY
	StartDate        time.Time
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PeriodsPerYear devuelve los períodos por año de la frecuencia del préstamo.
func (l *Loan) PeriodsPerYear() int {
	switch l.Frequency {
	case FrequencyWeekly:
		return PeriodsPerYearWeekly
	case FrequencyBiweekly:
		return PeriodsPerYearBiweekly
	default:
		return PeriodsPerYearMonthly
	}
}

// PeriodicRate devuelve la tasa periódica como fracción decimal
// (tasa anual / períodos por año / 100).
func (l *Loan) PeriodicRate() decimal.Decimal {
	if l.AnnualRate.IsZero() {
		return decimal.Zero
	}
	periods := decimal.NewFromInt(int64(l.PeriodsPerYear()))
	return l.AnnualRate.Div(periods).Div(decimal.NewFromInt(100))
}
