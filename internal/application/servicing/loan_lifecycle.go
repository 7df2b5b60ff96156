package servicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

// LoanLifecycleUseCase recibe los eventos del flujo de aprobación externo y
// los refleja en el motor: alta de deudores y préstamos, aprobación (que
// dispara la generación del plan exactamente una vez), rechazo y cancelación.
type LoanLifecycleUseCase struct {
	txRunner  TxRunner
	generator *GenerateScheduleUseCase
	evaluator *EvaluateBorrowerUseCase
}

// NewLoanLifecycleUseCase construye el caso de uso.
func NewLoanLifecycleUseCase(txRunner TxRunner, generator *GenerateScheduleUseCase, evaluator *EvaluateBorrowerUseCase) *LoanLifecycleUseCase {
	return &LoanLifecycleUseCase{txRunner: txRunner, generator: generator, evaluator: evaluator}
}

// RegisterBorrower da de alta un deudor; la cédula/NIT es única y el estado
// inicial es ACTIVE.
func (uc *LoanLifecycleUseCase) RegisterBorrower(ctx context.Context, nationalID, name string) (*entity.Borrower, error) {
	if nationalID == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	borrower := &entity.Borrower{
		ID:         uuid.New().String(),
		NationalID: nationalID,
		Name:       name,
		Status:     entity.BorrowerStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := uc.txRunner.Run(ctx, func(
		_ repository.LoanRepository,
		_ repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		_ repository.AuditRepository,
	) error {
		return borrowerRepo.Create(borrower)
	})
	if err != nil {
		return nil, err
	}
	return borrower, nil
}

// RegisterLoan registra un préstamo en revisión; el plan no se genera hasta
// la aprobación.
func (uc *LoanLifecycleUseCase) RegisterLoan(ctx context.Context, loan *entity.Loan) (*entity.Loan, error) {
	if loan == nil || loan.BorrowerID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !loan.Principal.GreaterThan(decimal.Zero) || loan.InstallmentCount < 1 || loan.StartDate.IsZero() {
		return nil, domain.ErrInvalidScheduleInput
	}
	switch loan.Frequency {
	case entity.FrequencyWeekly, entity.FrequencyBiweekly, entity.FrequencyMonthly:
	default:
		return nil, domain.ErrInvalidScheduleInput
	}

	now := time.Now()
	loan.ID = uuid.New().String()
	loan.Status = entity.LoanStatusInReview
	loan.CreatedAt = now
	loan.UpdatedAt = now

	err := uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		_ repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		_ repository.AuditRepository,
	) error {
		borrower, err := borrowerRepo.GetByID(loan.BorrowerID)
		if err != nil {
			return err
		}
		if borrower == nil {
			return domain.ErrBorrowerNotFound
		}
		return loanRepo.Create(loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Approve marca el préstamo como APPROVED y genera su plan de cuotas. La
// transición y la generación corren en transacciones separadas: si la
// generación falla después del commit de la transición, el préstamo queda
// APPROVED sin plan. La recuperación es POST /api/loans/:id/schedule
// (GenerateScheduleUseCase.Execute), que genera el plan de cualquier
// préstamo APPROVED sin cuotas; repetir Approve no sirve porque APPROVED no
// es estado de origen válido (ErrConflict).
func (uc *LoanLifecycleUseCase) Approve(ctx context.Context, loanID string) ([]*entity.Installment, error) {
	if err := uc.transition(ctx, loanID, entity.LoanStatusApproved,
		entity.LoanStatusDraft, entity.LoanStatusInReview); err != nil {
		return nil, err
	}
	return uc.generator.Execute(ctx, loanID, false)
}

// Reject marca el préstamo como REJECTED y reevalúa la mora del deudor.
func (uc *LoanLifecycleUseCase) Reject(ctx context.Context, loanID string) error {
	return uc.transitionAndReevaluate(ctx, loanID, entity.LoanStatusRejected,
		entity.LoanStatusDraft, entity.LoanStatusInReview)
}

// Cancel congela el préstamo: sus cuotas quedan intactas pero dejan de ser
// elegibles para pagos y para el conteo de mora.
func (uc *LoanLifecycleUseCase) Cancel(ctx context.Context, loanID string) error {
	return uc.transitionAndReevaluate(ctx, loanID, entity.LoanStatusCancelled,
		entity.LoanStatusApproved, entity.LoanStatusInReview, entity.LoanStatusDraft)
}

// CreditBalance devuelve el saldo a favor vigente del deudor.
func (uc *LoanLifecycleUseCase) CreditBalance(ctx context.Context, borrowerID string) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := uc.txRunner.Run(ctx, func(
		_ repository.LoanRepository,
		_ repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		_ repository.PaymentRepository,
		ledgerRepo repository.CreditLedgerRepository,
		_ repository.AuditRepository,
	) error {
		borrower, err := borrowerRepo.GetByID(borrowerID)
		if err != nil {
			return err
		}
		if borrower == nil {
			return domain.ErrBorrowerNotFound
		}
		balance, err = ledgerRepo.Balance(borrowerID)
		return err
	})
	return balance, err
}

// Portfolio devuelve la cartera completa del deudor: cada préstamo con el
// resumen agregado de su plan y el saldo a favor vigente.
func (uc *LoanLifecycleUseCase) Portfolio(ctx context.Context, borrowerID string) (*dto.PortfolioResponse, error) {
	var resp *dto.PortfolioResponse
	err := uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		instRepo repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		_ repository.PaymentRepository,
		ledgerRepo repository.CreditLedgerRepository,
		_ repository.AuditRepository,
	) error {
		borrower, err := borrowerRepo.GetByID(borrowerID)
		if err != nil {
			return err
		}
		if borrower == nil {
			return domain.ErrBorrowerNotFound
		}
		balance, err := ledgerRepo.Balance(borrowerID)
		if err != nil {
			return err
		}
		loans, err := loanRepo.ListByBorrower(borrowerID)
		if err != nil {
			return err
		}

		now := time.Now()
		resp = &dto.PortfolioResponse{
			BorrowerID:    borrower.ID,
			Name:          borrower.Name,
			Status:        borrower.Status,
			CreditBalance: balance,
			Loans:         make([]dto.LoanProgress, 0, len(loans)),
		}
		for _, loan := range loans {
			installments, err := instRepo.ListByLoan(loan.ID)
			if err != nil {
				return err
			}
			resp.Loans = append(resp.Loans, dto.LoanProgress{
				Loan: dto.LoanResponse{
					ID:               loan.ID,
					BorrowerID:       loan.BorrowerID,
					Principal:        loan.Principal,
					AnnualRate:       loan.AnnualRate,
					InstallmentCount: loan.InstallmentCount,
					Frequency:        loan.Frequency,
					StartDate:        loan.StartDate.Format("2006-01-02"),
					Status:           loan.Status,
				},
				Summary: buildScheduleResponse(loan.ID, installments, now).Summary,
			})
		}
		return nil
	})
	return resp, err
}

// History devuelve el rastro de auditoría de una entidad en orden cronológico.
func (uc *LoanLifecycleUseCase) History(ctx context.Context, entityType, entityID string) ([]*entity.AuditEvent, error) {
	var events []*entity.AuditEvent
	err := uc.txRunner.Run(ctx, func(
		_ repository.LoanRepository,
		_ repository.InstallmentRepository,
		_ repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error {
		var err error
		events, err = auditRepo.ListByEntity(entityType, entityID)
		return err
	})
	return events, err
}

// transition cambia el estado del préstamo validando el estado de origen.
func (uc *LoanLifecycleUseCase) transition(ctx context.Context, loanID, target string, allowedFrom ...string) error {
	return uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		_ repository.InstallmentRepository,
		_ repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error {
		loan, err := loanRepo.GetForUpdate(loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return domain.ErrNotFound
		}
		permitted := false
		for _, from := range allowedFrom {
			if loan.Status == from {
				permitted = true
				break
			}
		}
		if !permitted {
			return domain.ErrConflict
		}
		if err := loanRepo.UpdateStatus(loanID, target); err != nil {
			return err
		}
		return auditRepo.Append(&entity.AuditEvent{
			ID:         uuid.New().String(),
			Kind:       entity.AuditLoanStatus,
			EntityType: "LOAN",
			EntityID:   loanID,
			OldValue:   loan.Status,
			NewValue:   target,
			Detail:     "transición de estado del préstamo",
			CreatedAt:  time.Now(),
		})
	})
}

// transitionAndReevaluate cambia el estado y reevalúa la mora del deudor:
// rechazar o cancelar un préstamo altera el conjunto de cuotas que cuentan
// para el umbral.
func (uc *LoanLifecycleUseCase) transitionAndReevaluate(ctx context.Context, loanID, target string, allowedFrom ...string) error {
	var borrowerID string
	err := uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		_ repository.InstallmentRepository,
		_ repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		_ repository.AuditRepository,
	) error {
		loan, err := loanRepo.GetByID(loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return domain.ErrNotFound
		}
		borrowerID = loan.BorrowerID
		return nil
	})
	if err != nil {
		return err
	}
	if err := uc.transition(ctx, loanID, target, allowedFrom...); err != nil {
		return err
	}
	_, err = uc.evaluator.Execute(ctx, borrowerID)
	return err
}
