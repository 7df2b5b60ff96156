package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrBorrowerNotFound = errors.New("deudor no encontrado")

	// Errores de validación del motor: se rechazan de forma síncrona,
	// nunca se procesan parcialmente.
	ErrInvalidScheduleInput = errors.New("parámetros del plan de pagos inválidos")
	ErrPaymentAmountInvalid = errors.New("monto del pago inválido")

	// Conflictos de regla de negocio: el llamador debe pedir explícitamente
	// la regeneración o la anulación correctiva.
	ErrScheduleAlreadyExists     = errors.New("el préstamo ya tiene un plan de pagos generado")
	ErrDuplicatePaymentReference = errors.New("referencia de pago ya aplicada")
	ErrLoanNotApproved           = errors.New("el préstamo no está aprobado")
)
