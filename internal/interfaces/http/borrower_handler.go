package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/servicing"
)

// BorrowerHandler maneja las peticiones HTTP de deudores.
type BorrowerHandler struct {
	lifecycle *servicing.LoanLifecycleUseCase
	evaluator *servicing.EvaluateBorrowerUseCase
}

// NewBorrowerHandler construye el handler.
func NewBorrowerHandler(lifecycle *servicing.LoanLifecycleUseCase, evaluator *servicing.EvaluateBorrowerUseCase) *BorrowerHandler {
	return &BorrowerHandler{lifecycle: lifecycle, evaluator: evaluator}
}

// Register da de alta un deudor.
// POST /api/borrowers
func (h *BorrowerHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterBorrowerRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	borrower, err := h.lifecycle.RegisterBorrower(c.Context(), in.NationalID, in.Name)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BorrowerResponse{
		ID:         borrower.ID,
		NationalID: borrower.NationalID,
		Name:       borrower.Name,
		Status:     borrower.Status,
	})
}

// Evaluate reevalúa el estado de mora de un deudor puntual.
// POST /api/borrowers/:id/evaluate
func (h *BorrowerHandler) Evaluate(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	result, err := h.evaluator.Execute(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(result)
}

// Sweep reevalúa el estado de mora de todos los deudores.
// POST /api/borrowers/sweep
func (h *BorrowerHandler) Sweep(c *fiber.Ctx) error {
	if err := h.evaluator.SweepAll(c.Context()); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// CreditBalance devuelve el saldo a favor vigente del deudor.
// GET /api/borrowers/:id/credit
func (h *BorrowerHandler) CreditBalance(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	balance, err := h.lifecycle.CreditBalance(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.CreditBalanceResponse{BorrowerID: id, Balance: balance})
}

// Portfolio devuelve la cartera del deudor: sus préstamos con el avance
// de cada plan y el saldo a favor.
// GET /api/borrowers/:id/loans
func (h *BorrowerHandler) Portfolio(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	portfolio, err := h.lifecycle.Portfolio(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(portfolio)
}

// History devuelve el rastro de auditoría del deudor.
// GET /api/borrowers/:id/history
func (h *BorrowerHandler) History(c *fiber.Ctx) error {
	return entityHistory(c, h.lifecycle, "BORROWER")
}
