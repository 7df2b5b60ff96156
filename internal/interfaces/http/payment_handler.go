package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/servicing"
)

// PaymentHandler maneja las peticiones HTTP de conciliación de pagos.
type PaymentHandler struct {
	reconciler *servicing.ApplyPaymentUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(reconciler *servicing.ApplyPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{reconciler: reconciler}
}

// Apply concilia un pago entrante contra las cuotas del deudor.
// POST /api/payments
func (h *PaymentHandler) Apply(c *fiber.Ctx) error {
	var in dto.ApplyPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	result, err := h.reconciler.Execute(c.Context(), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Reverse registra un ajuste correctivo con monto negativo.
// POST /api/payments/reversals
func (h *PaymentHandler) Reverse(c *fiber.Ctx) error {
	var in dto.ReversePaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	result, err := h.reconciler.Reverse(c.Context(), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListUnmatched lista los pagos pendientes de revisión manual.
// GET /api/payments/unmatched
func (h *PaymentHandler) ListUnmatched(c *fiber.Ctx) error {
	payments, err := h.reconciler.ListUnmatched(c.Context())
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(payments)
}
