package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// CreditLedgerRepository define el puerto del libro append-only de créditos a
// favor. No hay Update ni Delete: toda corrección es un asiento nuevo.
type CreditLedgerRepository interface {
	Append(entry *entity.CreditLedgerEntry) error
	ListByBorrower(borrowerID string) ([]*entity.CreditLedgerEntry, error)
	// Balance devuelve la suma de los asientos del deudor.
	Balance(borrowerID string) (decimal.Decimal, error)
}
