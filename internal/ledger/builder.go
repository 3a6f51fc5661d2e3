package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
)

// Ledger is a date window of transactions with running balances stamped.
type Ledger struct {
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	Transactions   []core.Transaction `json:"transactions"`
}

// ClosingBalance is the running balance after the last transaction, or the
// opening balance when the window is empty.
func (l Ledger) ClosingBalance() decimal.Decimal {
	if n := len(l.Transactions); n > 0 {
		return l.Transactions[n-1].RunningBalance
	}
	return l.OpeningBalance
}

// Build computes the opening balance and the windowed running balances from
// the same transaction set.
func Build(txs []core.Transaction, start, end core.Date) Ledger {
	opening := OpeningBalance(txs, start)
	return Ledger{
		OpeningBalance: opening,
		Transactions:   Window(txs, start, end, opening),
	}
}

// SortTransactions returns a copy of txs ordered by date. Equal dates keep
// their input order.
func SortTransactions(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// OpeningBalance is the signed sum of every transaction dated strictly
// before start.
func OpeningBalance(txs []core.Transaction, start core.Date) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Date.Before(start.Time) {
			total = total.Add(tx.Signed())
		}
	}
	return total
}

// Window returns the transactions dated within [start, end], both ends
// inclusive, in date order, with RunningBalance carried forward from
// opening.
func Window(txs []core.Transaction, start, end core.Date, opening decimal.Decimal) []core.Transaction {
	sorted := SortTransactions(txs)
	out := make([]core.Transaction, 0, len(sorted))
	running := opening
	for _, tx := range sorted {
		if tx.Date.Before(start.Time) || tx.Date.After(end.Time) {
			continue
		}
		running = running.Add(tx.Signed())
		tx.RunningBalance = running
		out = append(out, tx)
	}
	return out
}
