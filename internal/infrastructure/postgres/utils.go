package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
// El constraint único (loan_id, sequence) de installments es la línea de
// defensa final contra planes duplicados por generaciones concurrentes.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// nullIfEmpty convierte "" en NULL para columnas opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// prefixed antepone el alias de tabla a cada columna de una lista
// "a, b, c" -> "i.a, i.b, i.c" (para SELECT con JOIN).
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for idx, col := range parts {
		parts[idx] = alias + "." + col
	}
	return strings.Join(parts, ", ")
}
