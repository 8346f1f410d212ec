package nrus

import (
	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
)

// Classification is derived on demand from monthly income/expense sums and
// never stored.
type Classification struct {
	Category int             `json:"category"`
	Quota    decimal.Decimal `json:"quota"`
}

var (
	categoryOneCeiling = decimal.NewFromInt(5000)
	categoryOneQuota   = decimal.NewFromInt(20)
	categoryTwoQuota   = decimal.NewFromInt(50)
)

// Classify computes the NRUS category and monthly quota from the greater of
// the two monthly sums. Amounts above the 8000 regulatory ceiling still fall
// into category 2; a regime change is not signalled here.
// TODO: confirm with product whether exceeding 8000 should force a regime
// change instead of category 2.
func Classify(incomeSum, expenseSum decimal.Decimal) (Classification, error) {
	if incomeSum.IsNegative() || expenseSum.IsNegative() {
		return Classification{}, internal.NewValidationError(
			"income and expense sums must not be negative", internal.ErrCodeInvalidAmount)
	}

	base := incomeSum
	if expenseSum.GreaterThan(base) {
		base = expenseSum
	}

	if base.LessThanOrEqual(categoryOneCeiling) {
		return Classification{Category: 1, Quota: categoryOneQuota}, nil
	}
	return Classification{Category: 2, Quota: categoryTwoQuota}, nil
}
