package servicing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// ScheduleLine es una línea de un plan de pagos calculado: valores puros, sin
// identidad de persistencia. El caso de uso los convierte en entity.Installment.
type ScheduleLine struct {
	Sequence        int
	DueDate         time.Time
	ScheduledAmount decimal.Decimal
	Principal       decimal.Decimal
	Interest        decimal.Decimal
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// BuildSchedule calcula el plan de pagos de un préstamo: una línea por cuota,
// con fecha de vencimiento según la frecuencia y componentes de capital e
// interés sobre saldo decreciente.
//
// Garantías:
//   - la suma de los componentes de capital es exactamente el principal
//     (la última cuota absorbe todo el residuo de redondeo);
//   - las secuencias son exactamente 1..InstallmentCount;
//   - con la misma entrada produce siempre el mismo plan (determinista), por
//     lo que regenerar sin pagos previos reproduce el plan original.
//
// Con tasa cero (el caso dominante en los datos) se usa la fórmula plana
// principal/n, nunca la fórmula de anualidad, para no dividir por cero.
func BuildSchedule(loan *entity.Loan) ([]ScheduleLine, error) {
	if loan == nil || loan.StartDate.IsZero() {
		return nil, domain.ErrInvalidScheduleInput
	}
	if !loan.Principal.GreaterThan(decimal.Zero) || loan.InstallmentCount < 1 {
		return nil, domain.ErrInvalidScheduleInput
	}
	switch loan.Frequency {
	case entity.FrequencyWeekly, entity.FrequencyBiweekly, entity.FrequencyMonthly:
	default:
		return nil, domain.ErrInvalidScheduleInput
	}

	n := loan.InstallmentCount
	rate := loan.PeriodicRate()
	lines := make([]ScheduleLine, 0, n)

	if rate.IsZero() {
		// Amortización plana: cuotas iguales redondeadas a centavo, la última
		// absorbe la diferencia para que la suma cierre exacta.
		per := loan.Principal.Div(decimal.NewFromInt(int64(n))).Round(2)
		allocated := decimal.Zero
		for seq := 1; seq <= n; seq++ {
			principal := per
			if seq == n {
				principal = loan.Principal.Sub(allocated)
			}
			allocated = allocated.Add(principal)
			lines = append(lines, ScheduleLine{
				Sequence:        seq,
				DueDate:         dueDate(loan.StartDate, loan.Frequency, seq),
				ScheduledAmount: principal,
				Principal:       principal,
				Interest:        decimal.Zero,
			})
		}
		return lines, nil
	}

	// Cuota fija de anualidad: P * r * (1+r)^n / ((1+r)^n - 1), redondeada a
	// centavo. El interés de cada período se calcula sobre el saldo vigente y
	// el capital es la diferencia; la última cuota liquida el saldo completo.
	factor := one.Add(rate).Pow(decimal.NewFromInt(int64(n)))
	payment := loan.Principal.Mul(rate).Mul(factor).Div(factor.Sub(one)).Round(2)

	balance := loan.Principal
	for seq := 1; seq <= n; seq++ {
		interest := balance.Mul(rate).Round(2)
		principal := payment.Sub(interest)
		if seq == n || principal.GreaterThan(balance) {
			principal = balance
		}
		balance = balance.Sub(principal)
		lines = append(lines, ScheduleLine{
			Sequence:        seq,
			DueDate:         dueDate(loan.StartDate, loan.Frequency, seq),
			ScheduledAmount: principal.Add(interest),
			Principal:       principal,
			Interest:        interest,
		})
	}
	return lines, nil
}

// BuildScheduleLine recalcula una sola línea del plan (misma fórmula que
// BuildSchedule). La usa el auditor de consistencia para regenerar únicamente
// secuencias faltantes sin tocar cuotas con pagos.
func BuildScheduleLine(loan *entity.Loan, sequence int) (ScheduleLine, error) {
	lines, err := BuildSchedule(loan)
	if err != nil {
		return ScheduleLine{}, err
	}
	if sequence < 1 || sequence > len(lines) {
		return ScheduleLine{}, domain.ErrInvalidScheduleInput
	}
	return lines[sequence-1], nil
}

// dueDate calcula el vencimiento de la secuencia: la primera cuota vence en
// la fecha de inicio del plan y las siguientes avanzan según la cadencia,
// 7 días por semana, 15 por quincena, y meses calendario (AddDate) para
// mensual, evitando la deriva de fechas que produce un conteo fijo de días.
func dueDate(start time.Time, frequency string, sequence int) time.Time {
	periods := sequence - 1
	switch frequency {
	case entity.FrequencyWeekly:
		return start.AddDate(0, 0, 7*periods)
	case entity.FrequencyBiweekly:
		return start.AddDate(0, 0, 15*periods)
	default:
		return start.AddDate(0, periods, 0)
	}
}
