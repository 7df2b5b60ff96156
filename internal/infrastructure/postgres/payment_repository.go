package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo implementación de PaymentRepository sobre PostgreSQL (usable con pool o tx).
// La columna reference lleva constraint único: es la clave de idempotencia
// contra pagos reproducidos desde el feed externo.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, borrower_nid, amount, payment_date, target_loan_id, target_sequence, reference, status, created_at, reconciled_at`

// Create persiste el pago con su resultado de conciliación.
func (r *PaymentRepo) Create(p *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.BorrowerNID, p.Amount, p.PaymentDate, nullIfEmpty(p.TargetLoanID),
		p.TargetSequence, p.Reference, p.Status, p.CreatedAt, p.ReconciledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("referencia %s: %w", p.Reference, domain.ErrDuplicatePaymentReference)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByReference busca por referencia externa. Devuelve nil sin error si no existe.
func (r *PaymentRepo) GetByReference(reference string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`
	var p entity.Payment
	var targetLoanID *string
	err := r.q.QueryRow(context.Background(), query, reference).Scan(
		&p.ID, &p.BorrowerNID, &p.Amount, &p.PaymentDate, &targetLoanID,
		&p.TargetSequence, &p.Reference, &p.Status, &p.CreatedAt, &p.ReconciledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if targetLoanID != nil {
		p.TargetLoanID = *targetLoanID
	}
	return &p, nil
}

// ListUnmatched lista los pagos pendientes de revisión manual.
func (r *PaymentRepo) ListUnmatched() ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 ORDER BY payment_date`
	rows, err := r.q.Query(context.Background(), query, entity.PaymentStatusUnmatched)
	if err != nil {
		return nil, fmt.Errorf("list unmatched payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		var targetLoanID *string
		if err := rows.Scan(
			&p.ID, &p.BorrowerNID, &p.Amount, &p.PaymentDate, &targetLoanID,
			&p.TargetSequence, &p.Reference, &p.Status, &p.CreatedAt, &p.ReconciledAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if targetLoanID != nil {
			p.TargetLoanID = *targetLoanID
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
