package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de créditos a favor.
const (
	CreditEntryDeposit     = "DEPOSIT"     // remanente de un pago que excedió todas las cuotas
	CreditEntryApplication = "APPLICATION" // aplicación manual del saldo a favor (monto negativo)
)

// CreditLedgerEntry es un asiento append-only del saldo a favor de un deudor.
//
// El sistema anterior convertía los sobrepagos en un "saldo negativo" del
// préstamo; aquí cada remanente queda como asiento explícito con signo, y el
// saldo a favor es la suma de los asientos. La aplicación del saldo es manual,
// nunca automática sobre cuotas futuras.
type CreditLedgerEntry struct {
	ID              string
	BorrowerID      string
	Amount          decimal.Decimal // positivo deposita, negativo aplica
	Kind            string          // DEPOSIT | APPLICATION
	SourceReference string          // referencia del pago que originó el asiento
	CreatedAt       time.Time
}
