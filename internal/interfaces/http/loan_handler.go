package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/servicing"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// LoanHandler maneja las peticiones HTTP del ciclo de vida de préstamos.
type LoanHandler struct {
	lifecycle *servicing.LoanLifecycleUseCase
}

// NewLoanHandler construye el handler.
func NewLoanHandler(lifecycle *servicing.LoanLifecycleUseCase) *LoanHandler {
	return &LoanHandler{lifecycle: lifecycle}
}

// Register registra un préstamo en revisión (el plan se genera al aprobar).
// POST /api/loans
func (h *LoanHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterLoanRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	startDate, err := time.Parse("2006-01-02", in.StartDate)
	if err != nil {
		return badRequest(c, "start_date debe ser YYYY-MM-DD")
	}
	loan := &entity.Loan{
		BorrowerID:       in.BorrowerID,
		Principal:        in.Principal,
		AnnualRate:       in.AnnualRate,
		InstallmentCount: in.InstallmentCount,
		Frequency:        in.Frequency,
		StartDate:        startDate,
	}
	created, err := h.lifecycle.RegisterLoan(c.Context(), loan)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(loanResponse(created))
}

// Approve aprueba el préstamo y genera su plan de cuotas.
// POST /api/loans/:id/approve
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	installments, err := h.lifecycle.Approve(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"loan_id": id, "installments": len(installments)})
}

// Reject rechaza el préstamo.
// POST /api/loans/:id/reject
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	if err := h.lifecycle.Reject(c.Context(), id); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"loan_id": id, "status": entity.LoanStatusRejected})
}

// Cancel cancela el préstamo congelando sus cuotas.
// POST /api/loans/:id/cancel
func (h *LoanHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	if err := h.lifecycle.Cancel(c.Context(), id); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"loan_id": id, "status": entity.LoanStatusCancelled})
}

// History devuelve el rastro de auditoría del préstamo.
// GET /api/loans/:id/history
func (h *LoanHandler) History(c *fiber.Ctx) error {
	return entityHistory(c, h.lifecycle, "LOAN")
}

// entityHistory responde el historial de auditoría de la entidad del path.
func entityHistory(c *fiber.Ctx, lifecycle *servicing.LoanLifecycleUseCase, entityType string) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	events, err := lifecycle.History(c.Context(), entityType, id)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]dto.AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.AuditEventResponse{
			ID:         e.ID,
			Kind:       e.Kind,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			Detail:     e.Detail,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(out)
}

func loanResponse(loan *entity.Loan) dto.LoanResponse {
	return dto.LoanResponse{
		ID:               loan.ID,
		BorrowerID:       loan.BorrowerID,
		Principal:        loan.Principal,
		AnnualRate:       loan.AnnualRate,
		InstallmentCount: loan.InstallmentCount,
		Frequency:        loan.Frequency,
		StartDate:        loan.StartDate.Format("2006-01-02"),
		Status:           loan.Status,
	}
}
