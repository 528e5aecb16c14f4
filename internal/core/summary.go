package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Budget usage thresholds, in percent.
const (
	BudgetWarnPercent = 80
	BudgetOverPercent = 100
)

type BudgetStatus string

const (
	BudgetOK      BudgetStatus = "ok"
	BudgetWarning BudgetStatus = "warning"
	BudgetOver    BudgetStatus = "over"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Name  Category `json:"name"`
	Value float64  `json:"value"`
}

// MonthAmount represents an amount aggregated by "YYYY-MM" month key.
type MonthAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// Summary is the derived dashboard view of a student's finances.
type Summary struct {
	TotalExpenses     float64          `json:"totalExpenses"`
	TotalSplitShare   float64          `json:"totalSplitShare"`
	CombinedExpenses  float64          `json:"combinedExpenses"`
	Income            float64          `json:"income"`
	Savings           float64          `json:"savings"`
	Budget            Budget           `json:"budget"`
	BudgetUsedPercent float64          `json:"budgetUsedPercent"`
	BudgetStatus      BudgetStatus     `json:"budgetStatus"`
	Categories        []CategoryAmount `json:"categories"`
	Months            []MonthAmount    `json:"months"`
}

// sumExpenses accumulates in decimal so that the category and month
// breakdowns add up to exactly the same total.
func sumExpenses(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}
	return total
}

// TotalExpenses sums every ledger entry.
func TotalExpenses(expenses []Expense) float64 {
	return sumExpenses(expenses).InexactFloat64()
}

// TotalSplitShare sums the per-person amount of every split, regardless of
// the paid flag.
func TotalSplitShare(splits []SplitBill) float64 {
	return sumShares(splits).InexactFloat64()
}

func sumShares(splits []SplitBill) decimal.Decimal {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(decimal.NewFromFloat(s.AmountPerPerson))
	}
	return total
}

// BudgetUsedPercent returns combined spending as a percentage of the budget
// amount, or 0 when the budget amount is not positive.
func BudgetUsedPercent(combined float64, b Budget) float64 {
	if b.Amount > 0 {
		return (combined / b.Amount) * 100
	}
	return 0
}

// StatusFor classifies a usage percentage.
func StatusFor(usedPercent float64) BudgetStatus {
	switch {
	case usedPercent > BudgetOverPercent:
		return BudgetOver
	case usedPercent > BudgetWarnPercent:
		return BudgetWarning
	default:
		return BudgetOK
	}
}

// CategoryBreakdown sums expenses per category in the fixed category order,
// omitting categories whose sum is zero.
func CategoryBreakdown(expenses []Expense) []CategoryAmount {
	sums := make(map[Category]decimal.Decimal, len(Categories))
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(decimal.NewFromFloat(e.Amount))
	}

	out := make([]CategoryAmount, 0, len(Categories))
	for _, c := range Categories {
		sum, ok := sums[c]
		if !ok || sum.IsZero() {
			continue
		}
		out = append(out, CategoryAmount{Name: c, Value: sum.InexactFloat64()})
	}
	return out
}

// MonthlyBreakdown groups expenses by year-month and returns the groups in
// ascending key order.
func MonthlyBreakdown(expenses []Expense) []MonthAmount {
	sums := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		key := e.Date.YearMonth()
		sums[key] = sums[key].Add(decimal.NewFromFloat(e.Amount))
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthAmount, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthAmount{Month: k, Amount: sums[k].InexactFloat64()})
	}
	return out
}

// Summarize derives the full dashboard view from raw collections.
func Summarize(student Student, expenses []Expense, splits []SplitBill) Summary {
	own := sumExpenses(expenses)
	share := sumShares(splits)
	combined := own.Add(share)
	savings := decimal.NewFromFloat(student.Income).Sub(combined)

	used := BudgetUsedPercent(combined.InexactFloat64(), student.Budget)

	return Summary{
		TotalExpenses:     own.InexactFloat64(),
		TotalSplitShare:   share.InexactFloat64(),
		CombinedExpenses:  combined.InexactFloat64(),
		Income:            student.Income,
		Savings:           savings.InexactFloat64(),
		Budget:            student.Budget,
		BudgetUsedPercent: used,
		BudgetStatus:      StatusFor(used),
		Categories:        CategoryBreakdown(expenses),
		Months:            MonthlyBreakdown(expenses),
	}
}
