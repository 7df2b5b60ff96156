package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ repository.CreditLedgerRepository = (*CreditLedgerRepo)(nil)

// CreditLedgerRepo implementación del libro de créditos a favor sobre
// PostgreSQL. Solo INSERT y SELECT: el libro es append-only por contrato.
type CreditLedgerRepo struct {
	q Querier
}

// NewCreditLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditLedgerRepository(q Querier) *CreditLedgerRepo {
	return &CreditLedgerRepo{q: q}
}

const creditLedgerColumns = `id, borrower_id, amount, kind, source_reference, created_at`

// Append agrega un asiento al libro.
func (r *CreditLedgerRepo) Append(entry *entity.CreditLedgerEntry) error {
	query := `
		INSERT INTO credit_ledger (` + creditLedgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.BorrowerID, entry.Amount, entry.Kind, entry.SourceReference, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credit ledger entry: %w", err)
	}
	return nil
}

// ListByBorrower lista los asientos del deudor en orden cronológico.
func (r *CreditLedgerRepo) ListByBorrower(borrowerID string) ([]*entity.CreditLedgerEntry, error) {
	query := `SELECT ` + creditLedgerColumns + ` FROM credit_ledger WHERE borrower_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("list credit ledger: %w", err)
	}
	defer rows.Close()

	var entries []*entity.CreditLedgerEntry
	for rows.Next() {
		var e entity.CreditLedgerEntry
		if err := rows.Scan(&e.ID, &e.BorrowerID, &e.Amount, &e.Kind, &e.SourceReference, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Balance devuelve la suma de los asientos del deudor.
func (r *CreditLedgerRepo) Balance(borrowerID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM credit_ledger WHERE borrower_id = $1`
	var balance decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, borrowerID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("credit ledger balance: %w", err)
	}
	return balance, nil
}
