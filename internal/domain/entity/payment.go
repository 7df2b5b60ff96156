package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de conciliación de un pago.
const (
	PaymentStatusUnmatched        = "UNMATCHED"         // sin cuota elegible; pendiente de revisión manual
	PaymentStatusMatched          = "MATCHED"           // todo el monto quedó asignado a cuotas
	PaymentStatusPartiallyMatched = "PARTIALLY_MATCHED" // parte asignada, el resto quedó como crédito a favor
	PaymentStatusRejected         = "REJECTED"          // rechazado por validación (lo registra la capa externa)
)

// Payment representa un ingreso de dinero externo a conciliar contra cuotas.
//
// Un pago es inmutable una vez conciliado: una corrección se registra como un
// nuevo pago de ajuste con monto negativo y su propia referencia, nunca como
// edición in situ, para preservar el historial de auditoría.
type Payment struct {
	ID             string
	BorrowerNID    string // cédula / NIT del deudor
	Amount         decimal.Decimal
	PaymentDate    time.Time
	TargetSequence *int   // cuota destino explícita (opcional)
	TargetLoanID   string // préstamo destino explícito (opcional, junto a TargetSequence)
	Reference      string // id de documento externo; clave de idempotencia
	Status         string
	CreatedAt      time.Time
	ReconciledAt   *time.Time
}

// IsReversal indica si el pago es un ajuste correctivo (monto negativo).
func (p *Payment) IsReversal() bool {
	return p.Amount.LessThan(decimal.Zero)
}
