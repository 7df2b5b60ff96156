package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Cartera-api/internal/application/servicing"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ servicing.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con los repos del motor atados a la
// tx y hace Commit o Rollback. Toda mutación del motor pasa por aquí: una
// asignación parcial nunca queda persistida.
func (r *TxRunner) Run(ctx context.Context, fn func(
	loanRepo repository.LoanRepository,
	instRepo repository.InstallmentRepository,
	borrowerRepo repository.BorrowerRepository,
	paymentRepo repository.PaymentRepository,
	ledgerRepo repository.CreditLedgerRepository,
	auditRepo repository.AuditRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	loanRepo := NewLoanRepository(tx)
	instRepo := NewInstallmentRepository(tx)
	borrowerRepo := NewBorrowerRepository(tx)
	paymentRepo := NewPaymentRepository(tx)
	ledgerRepo := NewCreditLedgerRepository(tx)
	auditRepo := NewAuditRepository(tx)

	if err := fn(loanRepo, instRepo, borrowerRepo, paymentRepo, ledgerRepo, auditRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
