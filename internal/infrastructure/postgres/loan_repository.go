package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ repository.LoanRepository = (*LoanRepo)(nil)

// LoanRepo implementación de LoanRepository sobre PostgreSQL (usable con pool o tx).
type LoanRepo struct {
	q Querier
}

// NewLoanRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLoanRepository(q Querier) *LoanRepo {
	return &LoanRepo{q: q}
}

const loanColumns = `id, borrower_id, principal, annual_rate, installment_count, frequency, start_date, status, created_at, updated_at`

// Create persiste el préstamo.
func (r *LoanRepo) Create(loan *entity.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		loan.ID, loan.BorrowerID, loan.Principal, loan.AnnualRate, loan.InstallmentCount,
		loan.Frequency, loan.StartDate, loan.Status, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// GetByID obtiene un préstamo por ID. Devuelve nil sin error si no existe.
func (r *LoanRepo) GetByID(id string) (*entity.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.scanOne(query, id)
}

// GetForUpdate obtiene el préstamo y bloquea la fila (SELECT FOR UPDATE):
// dos generaciones de plan sobre el mismo préstamo se serializan aquí.
func (r *LoanRepo) GetForUpdate(id string) (*entity.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	return r.scanOne(query, id)
}

// ListByBorrower lista los préstamos del deudor.
func (r *LoanRepo) ListByBorrower(borrowerID string) ([]*entity.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower_id = $1 ORDER BY created_at`
	return r.scanMany(query, borrowerID)
}

// ListApproved lista todos los préstamos aprobados (alcance de la auditoría).
func (r *LoanRepo) ListApproved() ([]*entity.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1 ORDER BY created_at`
	return r.scanMany(query, entity.LoanStatusApproved)
}

// UpdateStatus cambia el estado del préstamo.
func (r *LoanRepo) UpdateStatus(id, status string) error {
	query := `UPDATE loans SET status = $2, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, status)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	return nil
}

func (r *LoanRepo) scanOne(query string, args ...any) (*entity.Loan, error) {
	var l entity.Loan
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&l.ID, &l.BorrowerID, &l.Principal, &l.AnnualRate, &l.InstallmentCount,
		&l.Frequency, &l.StartDate, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return &l, nil
}

func (r *LoanRepo) scanMany(query string, args ...any) ([]*entity.Loan, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []*entity.Loan
	for rows.Next() {
		var l entity.Loan
		if err := rows.Scan(
			&l.ID, &l.BorrowerID, &l.Principal, &l.AnnualRate, &l.InstallmentCount,
			&l.Frequency, &l.StartDate, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, &l)
	}
	return loans, rows.Err()
}
