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
)

// GenerateScheduleUseCase genera el plan de cuotas de un préstamo aprobado
// de forma transaccional: bloquea la fila del préstamo (SELECT FOR UPDATE)
// para que dos generaciones concurrentes sobre el mismo préstamo no puedan
// producir cuotas duplicadas, e inserta el plan completo o nada.
type GenerateScheduleUseCase struct {
	txRunner TxRunner
	notifier Notifier
}

// NewGenerateScheduleUseCase construye el caso de uso.
func NewGenerateScheduleUseCase(txRunner TxRunner, notifier Notifier) *GenerateScheduleUseCase {
	return &GenerateScheduleUseCase{txRunner: txRunner, notifier: notifier}
}

// Execute genera el plan del préstamo. Con regenerate en falso falla con
// ErrScheduleAlreadyExists si ya hay cuotas; con regenerate en verdadero
// anula el plan anterior, pero se niega (ErrConflict) si alguna cuota ya
// tiene pagos: esas solo se tocan por la vía de reparación auditada.
//
// Tras el commit publica InstallmentsGenerated y reevalúa la mora del deudor
// dentro de la misma transacción (la aprobación del préstamo cambia el
// conjunto de cuotas que cuentan para el umbral).
func (uc *GenerateScheduleUseCase) Execute(ctx context.Context, loanID string, regenerate bool) ([]*entity.Installment, error) {
	if loanID == "" {
		return nil, domain.ErrInvalidScheduleInput
	}

	var generated []*entity.Installment
	var delinquency *dto.DelinquencyResponse
	err := uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		instRepo repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		paymentRepo repository.PaymentRepository,
		ledgerRepo repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error {
		loan, err := loanRepo.GetForUpdate(loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return domain.ErrNotFound
		}
		if loan.Status != entity.LoanStatusApproved {
			return domain.ErrLoanNotApproved
		}

		existing, err := instRepo.ListByLoan(loanID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			if !regenerate {
				return domain.ErrScheduleAlreadyExists
			}
			for _, inst := range existing {
				if inst.AmountPaid.GreaterThan(decimal.Zero) {
					return fmt.Errorf("cuota %d con pagos registrados: %w", inst.Sequence, domain.ErrConflict)
				}
			}
			if err := instRepo.DeleteByLoan(loanID); err != nil {
				return err
			}
			if err := auditRepo.Append(&entity.AuditEvent{
				ID:         uuid.New().String(),
				Kind:       entity.AuditScheduleRegenerated,
				EntityType: "LOAN",
				EntityID:   loanID,
				OldValue:   fmt.Sprintf("%d cuotas", len(existing)),
				Detail:     "plan anterior anulado por regeneración explícita",
				CreatedAt:  time.Now(),
			}); err != nil {
				return err
			}
		}

		lines, err := domsvc.BuildSchedule(loan)
		if err != nil {
			return err
		}

		now := time.Now()
		generated = make([]*entity.Installment, 0, len(lines))
		for _, line := range lines {
			generated = append(generated, &entity.Installment{
				ID:              uuid.New().String(),
				LoanID:          loan.ID,
				Sequence:        line.Sequence,
				DueDate:         line.DueDate,
				ScheduledAmount: line.ScheduledAmount,
				PrincipalAmount: line.Principal,
				InterestAmount:  line.Interest,
				AmountPaid:      decimal.Zero,
				Status:          entity.InstallmentStatusPending,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
		}
		if err := instRepo.CreateBatch(generated); err != nil {
			return err
		}

		if err := auditRepo.Append(&entity.AuditEvent{
			ID:         uuid.New().String(),
			Kind:       entity.AuditScheduleGenerated,
			EntityType: "LOAN",
			EntityID:   loanID,
			NewValue:   fmt.Sprintf("%d cuotas", len(generated)),
			Detail:     fmt.Sprintf("principal %s, frecuencia %s", loan.Principal.StringFixed(2), loan.Frequency),
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		// El conjunto de cuotas del deudor cambió: reevaluar mora en la misma tx.
		delinquency, err = reevaluateBorrower(loanRepo, instRepo, borrowerRepo, auditRepo, loan.BorrowerID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.InstallmentsGenerated(loanID, len(generated))
	if delinquency.OldStatus != delinquency.NewStatus {
		uc.notifier.BorrowerStatusChanged(delinquency.BorrowerID, delinquency.OldStatus, delinquency.NewStatus)
	}
	return generated, nil
}

// GetSchedule devuelve el plan vigente con su resumen agregado.
func (uc *GenerateScheduleUseCase) GetSchedule(ctx context.Context, loanID string) (*dto.ScheduleResponse, error) {
	var resp *dto.ScheduleResponse
	err := uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		instRepo repository.InstallmentRepository,
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
		installments, err := instRepo.ListByLoan(loanID)
		if err != nil {
			return err
		}
		resp = buildScheduleResponse(loanID, installments, time.Now())
		return nil
	})
	return resp, err
}

// buildScheduleResponse arma la respuesta con el resumen del plan
// (totales, pagadas, en mora, saldo).
func buildScheduleResponse(loanID string, installments []*entity.Installment, today time.Time) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		LoanID:       loanID,
		Installments: make([]dto.InstallmentResponse, 0, len(installments)),
		Summary: dto.ScheduleSummary{
			TotalScheduled: decimal.Zero,
			TotalPrincipal: decimal.Zero,
			TotalInterest:  decimal.Zero,
			TotalPaid:      decimal.Zero,
			Outstanding:    decimal.Zero,
		},
	}
	for _, inst := range installments {
		resp.Installments = append(resp.Installments, dto.InstallmentResponse{
			ID:              inst.ID,
			LoanID:          inst.LoanID,
			Sequence:        inst.Sequence,
			DueDate:         inst.DueDate.Format("2006-01-02"),
			ScheduledAmount: inst.ScheduledAmount,
			PrincipalAmount: inst.PrincipalAmount,
			InterestAmount:  inst.InterestAmount,
			AmountPaid:      inst.AmountPaid,
			Status:          inst.Status,
		})
		resp.Summary.TotalInstallments++
		resp.Summary.TotalScheduled = resp.Summary.TotalScheduled.Add(inst.ScheduledAmount)
		resp.Summary.TotalPrincipal = resp.Summary.TotalPrincipal.Add(inst.PrincipalAmount)
		resp.Summary.TotalInterest = resp.Summary.TotalInterest.Add(inst.InterestAmount)
		resp.Summary.TotalPaid = resp.Summary.TotalPaid.Add(inst.AmountPaid)
		resp.Summary.Outstanding = resp.Summary.Outstanding.Add(inst.Outstanding())
		if inst.Status == entity.InstallmentStatusPaid {
			resp.Summary.PaidInstallments++
		}
		if inst.IsOverdue(today) {
			resp.Summary.OverdueCount++
		}
	}
	return resp
}
