package ledger

import (
	"github.com/shopspring/decimal"

	"cashbook/internal/core"
)

// Summarize totals the visible transactions. The opening balance is passed
// through untouched; it always reflects unfiltered history.
func Summarize(txs []core.Transaction, opening decimal.Decimal) core.Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	return core.Summary{
		OpeningBalance: opening,
		TotalIncome:    income,
		TotalExpense:   expense,
		ClosingBalance: opening.Add(income).Sub(expense),
	}
}
