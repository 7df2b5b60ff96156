package servicing

import (
	"context"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	domsvc "github.com/jhoicas/Cartera-api/internal/domain/servicing"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza la atomicidad del motor: una
// operación se confirma completa o se revierte completa; un estado de
// asignación parcial nunca es observable.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		loanRepo repository.LoanRepository,
		instRepo repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		paymentRepo repository.PaymentRepository,
		ledgerRepo repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error) error
}

// Notifier publica los eventos salientes del motor hacia los colaboradores de
// reporte y notificación (capa excluida). Se invoca después del commit: un
// evento nunca anuncia estado que no quedó persistido.
type Notifier interface {
	InstallmentsGenerated(loanID string, count int)
	ReconciliationCompleted(result *dto.ReconciliationResult)
	BorrowerStatusChanged(borrowerID, oldStatus, newStatus string)
	ConsistencyFinding(finding domsvc.Finding)
}
