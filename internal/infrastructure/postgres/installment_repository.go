package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ repository.InstallmentRepository = (*InstallmentRepo)(nil)

// InstallmentRepo implementación de InstallmentRepository sobre PostgreSQL
// (usable con pool o tx). La tabla lleva el constraint único
// (loan_id, sequence) que respalda el invariante de secuencias sin duplicar.
type InstallmentRepo struct {
	q Querier
}

// NewInstallmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInstallmentRepository(q Querier) *InstallmentRepo {
	return &InstallmentRepo{q: q}
}

const installmentColumns = `id, loan_id, sequence, due_date, scheduled_amount, principal_amount, interest_amount, amount_paid, paid_at, status, created_at, updated_at`

const insertInstallment = `
	INSERT INTO installments (` + installmentColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// CreateBatch inserta el plan completo. Dentro de la transacción del TxRunner
// la inserción es todo-o-nada; un choque con el constraint único se traduce a
// ErrScheduleAlreadyExists (otra generación ganó la carrera).
func (r *InstallmentRepo) CreateBatch(installments []*entity.Installment) error {
	for _, inst := range installments {
		if err := r.Create(inst); err != nil {
			return err
		}
	}
	return nil
}

// Create inserta una cuota.
func (r *InstallmentRepo) Create(inst *entity.Installment) error {
	_, err := r.q.Exec(context.Background(), insertInstallment,
		inst.ID, inst.LoanID, inst.Sequence, inst.DueDate, inst.ScheduledAmount,
		inst.PrincipalAmount, inst.InterestAmount, inst.AmountPaid, inst.PaidAt,
		inst.Status, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cuota %d del préstamo %s: %w", inst.Sequence, inst.LoanID, domain.ErrScheduleAlreadyExists)
		}
		return fmt.Errorf("insert installment: %w", err)
	}
	return nil
}

// ListByLoan lista las cuotas del préstamo en orden de secuencia.
func (r *InstallmentRepo) ListByLoan(loanID string) ([]*entity.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE loan_id = $1 ORDER BY sequence, id`
	return r.scanMany(query, loanID)
}

// ListByBorrower lista las cuotas de todos los préstamos del deudor.
func (r *InstallmentRepo) ListByBorrower(borrowerID string) ([]*entity.Installment, error) {
	query := `
		SELECT ` + prefixed("i", installmentColumns) + `
		FROM installments i
		JOIN loans l ON l.id = i.loan_id
		WHERE l.borrower_id = $1
		ORDER BY i.due_date, i.sequence`
	return r.scanMany(query, borrowerID)
}

// ListOrphans lista cuotas cuyo loan_id no existe en loans.
func (r *InstallmentRepo) ListOrphans() ([]*entity.Installment, error) {
	query := `
		SELECT ` + prefixed("i", installmentColumns) + `
		FROM installments i
		LEFT JOIN loans l ON l.id = i.loan_id
		WHERE l.id IS NULL
		ORDER BY i.loan_id, i.sequence`
	return r.scanMany(query)
}

// Update persiste el monto pagado, el estado y la fecha de pago de una cuota.
func (r *InstallmentRepo) Update(inst *entity.Installment) error {
	query := `
		UPDATE installments
		SET amount_paid = $2,
		    paid_at     = $3,
		    status      = $4,
		    updated_at  = $5
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		inst.ID, inst.AmountPaid, inst.PaidAt, inst.Status, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	return nil
}

// DeleteByLoan elimina el plan vigente (solo regeneración auditada).
func (r *InstallmentRepo) DeleteByLoan(loanID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM installments WHERE loan_id = $1`, loanID)
	if err != nil {
		return fmt.Errorf("delete installments: %w", err)
	}
	return nil
}

// Delete elimina una cuota puntual (solo reparación auditada).
func (r *InstallmentRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM installments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	return nil
}

func (r *InstallmentRepo) scanMany(query string, args ...any) ([]*entity.Installment, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	var installments []*entity.Installment
	for rows.Next() {
		var i entity.Installment
		if err := rows.Scan(
			&i.ID, &i.LoanID, &i.Sequence, &i.DueDate, &i.ScheduledAmount,
			&i.PrincipalAmount, &i.InterestAmount, &i.AmountPaid, &i.PaidAt,
			&i.Status, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		installments = append(installments, &i)
	}
	return installments, rows.Err()
}
