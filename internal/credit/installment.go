// Package credit computes credit consultation amounts and installment schedules.
package credit

import (
	"credit-api/internal/apperror"

	"github.com/shopspring/decimal"
)

const (
	// MaxInstallmentCount caps the schedule length (50 years of monthly payments)
	MaxInstallmentCount = 600

	moneyPlaces = 2
)

var (
	// InterestRate is the fixed per-period rate applied to every consultation (2.5%)
	InterestRate = decimal.RequireFromString("0.025")

	// MaxAmount is the largest value a decimal(14,2) money column holds
	MaxAmount = decimal.RequireFromString("999999999999.99")
)

// Result is the outcome of a credit calculation
type Result struct {
	TotalAmount      decimal.Decimal
	InterestRate     decimal.Decimal
	InstallmentCount int
	FirstInstallment decimal.Decimal
	Installments     []decimal.Decimal
}

// Calculate accrues InterestRate over installmentCount-1 periods on principal,
// rounds the total half-up to cents and splits it into installmentCount parts.
// A single installment therefore carries no interest.
// The first installment absorbs the rounding residual so the parts always sum to the total.
//
// InvalidArgument is returned for a non-positive principal or count, a count above
// MaxInstallmentCount, a principal or total above MaxAmount, and when the residual would make
// the first installment negative (a tiny principal spread over many installments).
func Calculate(principal decimal.Decimal, installmentCount int) (Result, error) {
	const op = "credit.Calculate"

	if !principal.IsPositive() {
		return Result{}, apperror.InvalidArgument(op, "amount must be positive, got %s", principal.String())
	}
	if installmentCount <= 0 {
		return Result{}, apperror.InvalidArgument(op, "installment count must be positive, got %d", installmentCount)
	}
	if installmentCount > MaxInstallmentCount {
		return Result{}, apperror.InvalidArgument(op, "installment count must not exceed %d, got %d", MaxInstallmentCount, installmentCount)
	}
	if principal.GreaterThan(MaxAmount) {
		return Result{}, apperror.InvalidArgument(op, "amount must not exceed %s, got %s", MaxAmount.StringFixed(moneyPlaces), principal.String())
	}

	total := TotalAmount(principal, installmentCount)
	if total.GreaterThan(MaxAmount) {
		return Result{}, apperror.InvalidArgument(op, "total %s for %d installments exceeds %s", total.StringFixed(moneyPlaces), installmentCount, MaxAmount.StringFixed(moneyPlaces))
	}
	installments := SplitInstallments(total, installmentCount)
	if installments[0].IsNegative() {
		return Result{}, apperror.InvalidArgument(op, "amount %s is too small for %d installments", principal.StringFixed(moneyPlaces), installmentCount)
	}

	return Result{
		TotalAmount:      total,
		InterestRate:     InterestRate,
		InstallmentCount: installmentCount,
		FirstInstallment: installments[0],
		Installments:     installments,
	}, nil
}

// TotalAmount returns principal * (1 + InterestRate)^(installmentCount-1) rounded to cents
func TotalAmount(principal decimal.Decimal, installmentCount int) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(InterestRate)
	total := principal
	for i := 1; i < installmentCount; i++ {
		total = total.Mul(factor)
	}
	return total.Round(moneyPlaces)
}

// SplitInstallments divides total into count installments of round(total/count),
// putting total - v*(count-1) in the first slot. count must be positive.
func SplitInstallments(total decimal.Decimal, count int) []decimal.Decimal {
	n := decimal.NewFromInt(int64(count))
	// DivRound keeps the half-up rounding exact for non-terminating quotients
	value := total.DivRound(n, moneyPlaces)
	first := total.Sub(value.Mul(n.Sub(decimal.NewFromInt(1))))

	installments := make([]decimal.Decimal, count)
	installments[0] = first
	for i := 1; i < count; i++ {
		installments[i] = value
	}
	return installments
}
