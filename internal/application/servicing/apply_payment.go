package servicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	domsvc "github.com/jhoicas/Cartera-api/internal/domain/servicing"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

// ApplyPaymentUseCase concilia pagos entrantes contra las cuotas del deudor.
//
// Toda la conciliación ocurre dentro de una transacción que bloquea la fila
// del deudor (SELECT FOR UPDATE): dos pagos del mismo deudor se serializan,
// pagos de deudores distintos avanzan en paralelo. La reevaluación de mora
// corre dentro de la misma transacción que la mutación de cuotas.
type ApplyPaymentUseCase struct {
	txRunner TxRunner
	notifier Notifier
	log      *logger.Logger
}

// NewApplyPaymentUseCase construye el caso de uso.
func NewApplyPaymentUseCase(txRunner TxRunner, notifier Notifier, log *logger.Logger) *ApplyPaymentUseCase {
	return &ApplyPaymentUseCase{
		txRunner: txRunner,
		notifier: notifier,
		log:      log.Component("conciliador"),
	}
}

// Execute aplica un pago con política de cascada (vencimiento más antiguo
// primero), o contra la cuota puntual si la solicitud trae destino explícito.
//
// Reglas:
//   - monto <= 0 falla con ErrPaymentAmountInvalid (los ajustes van por Reverse);
//   - una referencia ya aplicada falla con ErrDuplicatePaymentReference antes
//     de tocar cuota alguna (reproducir el pago no duplica fondos);
//   - sin cuota elegible el pago queda UNMATCHED, visible para revisión
//     manual, nunca descartado;
//   - el remanente tras pagar todas las cuotas queda como asiento de crédito
//     a favor del deudor, jamás por encima del 100% de una cuota.
func (uc *ApplyPaymentUseCase) Execute(ctx context.Context, req dto.ApplyPaymentRequest) (*dto.ReconciliationResult, error) {
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrPaymentAmountInvalid
	}
	if req.Reference == "" || req.BorrowerNID == "" {
		return nil, domain.ErrInvalidInput
	}
	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		return nil, err
	}

	var (
		result      *dto.ReconciliationResult
		delinquency *dto.DelinquencyResponse
	)
	err = uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		instRepo repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		paymentRepo repository.PaymentRepository,
		ledgerRepo repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error {
		borrower, err := resolveBorrower(borrowerRepo, req.BorrowerNID)
		if err != nil {
			return err
		}

		// Idempotencia por referencia externa, verificada con la fila del
		// deudor ya bloqueada para cerrar la carrera entre réplicas.
		if prior, err := paymentRepo.GetByReference(req.Reference); err != nil {
			return err
		} else if prior != nil {
			return domain.ErrDuplicatePaymentReference
		}

		eligible, err := eligibleInstallments(loanRepo, instRepo, borrower.ID, req.TargetLoanID, req.TargetSequence)
		if err != nil {
			return err
		}

		now := time.Now()
		payment := &entity.Payment{
			ID:             uuid.New().String(),
			BorrowerNID:    req.BorrowerNID,
			Amount:         req.Amount,
			PaymentDate:    paymentDate,
			Reference:      req.Reference,
			TargetLoanID:   req.TargetLoanID,
			TargetSequence: req.TargetSequence,
			CreatedAt:      now,
		}

		allocation := domsvc.Allocate(eligible, req.Amount, now)
		result = &dto.ReconciliationResult{
			PaymentID:       payment.ID,
			Reference:       payment.Reference,
			CreditRemainder: decimal.Zero,
			Allocations:     make([]dto.AllocationResponse, 0, len(allocation.Allocations)),
		}

		for _, alloc := range allocation.Allocations {
			result.Allocations = append(result.Allocations, dto.AllocationResponse{
				InstallmentID: alloc.InstallmentID,
				LoanID:        alloc.LoanID,
				Sequence:      alloc.Sequence,
				Applied:       alloc.Applied,
				NewStatus:     alloc.NewStatus,
			})
		}
		for _, inst := range eligible {
			// Solo persistimos las cuotas que la asignación mutó.
			if touched(allocation.Allocations, inst.ID) {
				if err := instRepo.Update(inst); err != nil {
					return err
				}
			}
		}

		switch {
		case len(allocation.Allocations) == 0:
			// Sin cuota elegible: el pago queda visible para revisión manual.
			payment.Status = entity.PaymentStatusUnmatched
			if err := auditRepo.Append(&entity.AuditEvent{
				ID:         uuid.New().String(),
				Kind:       entity.AuditPaymentUnmatched,
				EntityType: "PAYMENT",
				EntityID:   payment.ID,
				NewValue:   entity.PaymentStatusUnmatched,
				Detail:     fmt.Sprintf("referencia %s sin cuota elegible; monto %s", payment.Reference, req.Amount.StringFixed(2)),
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		case allocation.Remainder.GreaterThan(decimal.Zero):
			payment.Status = entity.PaymentStatusPartiallyMatched
			result.CreditRemainder = allocation.Remainder
			if err := depositCredit(ledgerRepo, auditRepo, borrower.ID, allocation.Remainder, payment.Reference, now); err != nil {
				return err
			}
		default:
			payment.Status = entity.PaymentStatusMatched
		}
		result.Status = payment.Status

		// Un pago UNMATCHED nunca se concilió: queda sin marca hasta que
		// una revisión manual lo resuelva.
		if payment.Status != entity.PaymentStatusUnmatched {
			reconciledAt := now
			payment.ReconciledAt = &reconciledAt
		}
		if err := paymentRepo.Create(payment); err != nil {
			return err
		}

		if len(allocation.Allocations) > 0 {
			if err := appendAllocationAudit(auditRepo, payment, allocation, now); err != nil {
				return err
			}
		}

		// Reevaluación de mora dentro de la misma unidad atómica.
		delinquency, err = reevaluateBorrower(loanRepo, instRepo, borrowerRepo, auditRepo, borrower.ID, now)
		if err != nil {
			return err
		}
		result.BorrowerStatus = delinquency.NewStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("reference", result.Reference).
		Str("status", result.Status).
		Int("cuotas", len(result.Allocations)).
		Str("remanente", result.CreditRemainder.StringFixed(2)).
		Msg("pago conciliado")

	uc.notifier.ReconciliationCompleted(result)
	if delinquency.OldStatus != delinquency.NewStatus {
		uc.notifier.BorrowerStatusChanged(delinquency.BorrowerID, delinquency.OldStatus, delinquency.NewStatus)
	}
	return result, nil
}

// Reverse registra un ajuste correctivo: un pago nuevo con monto negativo y
// su propia referencia que deshace fondos de las cuotas pagadas más
// recientemente. Nunca se edita un pago ya conciliado.
func (uc *ApplyPaymentUseCase) Reverse(ctx context.Context, req dto.ReversePaymentRequest) (*dto.ReconciliationResult, error) {
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrPaymentAmountInvalid
	}
	if req.Reference == "" || req.BorrowerNID == "" {
		return nil, domain.ErrInvalidInput
	}
	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		return nil, err
	}

	var (
		result      *dto.ReconciliationResult
		delinquency *dto.DelinquencyResponse
	)
	err = uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		instRepo repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		paymentRepo repository.PaymentRepository,
		ledgerRepo repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error {
		borrower, err := resolveBorrower(borrowerRepo, req.BorrowerNID)
		if err != nil {
			return err
		}
		if prior, err := paymentRepo.GetByReference(req.Reference); err != nil {
			return err
		} else if prior != nil {
			return domain.ErrDuplicatePaymentReference
		}

		eligible, err := eligibleInstallments(loanRepo, instRepo, borrower.ID, "", nil)
		if err != nil {
			return err
		}

		now := time.Now()
		allocation := domsvc.AllocateReversal(eligible, req.Amount, now)
		for _, inst := range eligible {
			if touched(allocation.Allocations, inst.ID) {
				if err := instRepo.Update(inst); err != nil {
					return err
				}
			}
		}

		payment := &entity.Payment{
			ID:          uuid.New().String(),
			BorrowerNID: req.BorrowerNID,
			Amount:      req.Amount.Neg(),
			PaymentDate: paymentDate,
			Reference:   req.Reference,
			Status:      entity.PaymentStatusMatched,
			CreatedAt:   now,
		}
		if len(allocation.Allocations) == 0 {
			payment.Status = entity.PaymentStatusUnmatched
		} else {
			reconciledAt := now
			payment.ReconciledAt = &reconciledAt
		}
		if err := paymentRepo.Create(payment); err != nil {
			return err
		}

		detail := fmt.Sprintf("reversión de %s", req.Amount.StringFixed(2))
		if req.OriginalReference != "" {
			detail = fmt.Sprintf("%s (corrige %s)", detail, req.OriginalReference)
		}
		if err := auditRepo.Append(&entity.AuditEvent{
			ID:         uuid.New().String(),
			Kind:       entity.AuditPaymentApplied,
			EntityType: "PAYMENT",
			EntityID:   payment.ID,
			NewValue:   payment.Status,
			Detail:     detail,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		result = &dto.ReconciliationResult{
			PaymentID:       payment.ID,
			Reference:       payment.Reference,
			Status:          payment.Status,
			CreditRemainder: decimal.Zero,
			Allocations:     make([]dto.AllocationResponse, 0, len(allocation.Allocations)),
		}
		for _, alloc := range allocation.Allocations {
			result.Allocations = append(result.Allocations, dto.AllocationResponse{
				InstallmentID: alloc.InstallmentID,
				LoanID:        alloc.LoanID,
				Sequence:      alloc.Sequence,
				Applied:       alloc.Applied,
				NewStatus:     alloc.NewStatus,
			})
		}

		delinquency, err = reevaluateBorrower(loanRepo, instRepo, borrowerRepo, auditRepo, borrower.ID, now)
		if err != nil {
			return err
		}
		result.BorrowerStatus = delinquency.NewStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.ReconciliationCompleted(result)
	if delinquency.OldStatus != delinquency.NewStatus {
		uc.notifier.BorrowerStatusChanged(delinquency.BorrowerID, delinquency.OldStatus, delinquency.NewStatus)
	}
	return result, nil
}

// ListUnmatched devuelve los pagos sin cuota elegible, pendientes de revisión
// manual.
func (uc *ApplyPaymentUseCase) ListUnmatched(ctx context.Context) ([]dto.PaymentResponse, error) {
	var out []dto.PaymentResponse
	err := uc.txRunner.Run(ctx, func(
		_ repository.LoanRepository,
		_ repository.InstallmentRepository,
		_ repository.BorrowerRepository,
		paymentRepo repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		_ repository.AuditRepository,
	) error {
		payments, err := paymentRepo.ListUnmatched()
		if err != nil {
			return err
		}
		out = make([]dto.PaymentResponse, 0, len(payments))
		for _, p := range payments {
			out = append(out, dto.PaymentResponse{
				ID:          p.ID,
				BorrowerNID: p.BorrowerNID,
				Amount:      p.Amount,
				PaymentDate: p.PaymentDate.Format("2006-01-02"),
				Reference:   p.Reference,
				Status:      p.Status,
			})
		}
		return nil
	})
	return out, err
}

// resolveBorrower busca al deudor por cédula/NIT y bloquea su fila: el resto
// de la conciliación corre con el deudor serializado.
func resolveBorrower(borrowerRepo repository.BorrowerRepository, nationalID string) (*entity.Borrower, error) {
	borrower, err := borrowerRepo.GetByNationalID(nationalID)
	if err != nil {
		return nil, err
	}
	if borrower == nil {
		return nil, domain.ErrBorrowerNotFound
	}
	return borrowerRepo.GetForUpdate(borrower.ID)
}

// eligibleInstallments devuelve las cuotas asignables: las de préstamos
// APPROVED del deudor, restringidas a la cuota destino si el pago la nombra.
// Los préstamos CANCELLED quedan congelados: sus cuotas no reciben fondos.
func eligibleInstallments(
	loanRepo repository.LoanRepository,
	instRepo repository.InstallmentRepository,
	borrowerID, targetLoanID string,
	targetSequence *int,
) ([]*entity.Installment, error) {
	loans, err := loanRepo.ListByBorrower(borrowerID)
	if err != nil {
		return nil, err
	}
	approved := make(map[string]bool, len(loans))
	for _, loan := range loans {
		if loan.Status == entity.LoanStatusApproved {
			approved[loan.ID] = true
		}
	}

	installments, err := instRepo.ListByBorrower(borrowerID)
	if err != nil {
		return nil, err
	}
	eligible := make([]*entity.Installment, 0, len(installments))
	for _, inst := range installments {
		if !approved[inst.LoanID] {
			continue
		}
		if targetLoanID != "" && inst.LoanID != targetLoanID {
			continue
		}
		if targetSequence != nil && inst.Sequence != *targetSequence {
			continue
		}
		eligible = append(eligible, inst)
	}
	return eligible, nil
}

// depositCredit deja el remanente como asiento append-only del libro de
// créditos, con su evento de auditoría.
func depositCredit(
	ledgerRepo repository.CreditLedgerRepository,
	auditRepo repository.AuditRepository,
	borrowerID string,
	amount decimal.Decimal,
	reference string,
	now time.Time,
) error {
	entry := &entity.CreditLedgerEntry{
		ID:              uuid.New().String(),
		BorrowerID:      borrowerID,
		Amount:          amount,
		Kind:            entity.CreditEntryDeposit,
		SourceReference: reference,
		CreatedAt:       now,
	}
	if err := ledgerRepo.Append(entry); err != nil {
		return err
	}
	return auditRepo.Append(&entity.AuditEvent{
		ID:         uuid.New().String(),
		Kind:       entity.AuditCreditDeposited,
		EntityType: "BORROWER",
		EntityID:   borrowerID,
		NewValue:   amount.StringFixed(2),
		Detail:     fmt.Sprintf("remanente del pago %s a saldo a favor", reference),
		CreatedAt:  now,
	})
}

// appendAllocationAudit deja un evento por el pago y uno por cada cuota que
// quedó totalmente pagada.
func appendAllocationAudit(
	auditRepo repository.AuditRepository,
	payment *entity.Payment,
	allocation domsvc.AllocationResult,
	now time.Time,
) error {
	if err := auditRepo.Append(&entity.AuditEvent{
		ID:         uuid.New().String(),
		Kind:       entity.AuditPaymentApplied,
		EntityType: "PAYMENT",
		EntityID:   payment.ID,
		NewValue:   payment.Status,
		Detail:     fmt.Sprintf("referencia %s asignada a %d cuota(s)", payment.Reference, len(allocation.Allocations)),
		CreatedAt:  now,
	}); err != nil {
		return err
	}
	for _, alloc := range allocation.Allocations {
		if alloc.NewStatus != entity.InstallmentStatusPaid {
			continue
		}
		if err := auditRepo.Append(&entity.AuditEvent{
			ID:         uuid.New().String(),
			Kind:       entity.AuditInstallmentPaid,
			EntityType: "INSTALLMENT",
			EntityID:   alloc.InstallmentID,
			NewValue:   entity.InstallmentStatusPaid,
			Detail:     fmt.Sprintf("pago %s completó la cuota %d", payment.Reference, alloc.Sequence),
			CreatedAt:  now,
		}); err != nil {
			return err
		}
	}
	return nil
}

// touched indica si la cuota aparece en el detalle de asignación.
func touched(allocations []domsvc.InstallmentAllocation, installmentID string) bool {
	for _, alloc := range allocations {
		if alloc.InstallmentID == installmentID {
			return true
		}
	}
	return false
}

// parsePaymentDate interpreta YYYY-MM-DD; vacío significa hoy.
func parsePaymentDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, domain.ErrInvalidInput
	}
	return t, nil
}
