package ledger

import (
	"strings"

	"cashbook/internal/core"
)

// FilterParams are the display refinements applied after running balances
// are fixed.
type FilterParams struct {
	Store       string
	VoucherType core.VoucherType
	Query       string
}

// Filter narrows a windowed ledger for display. RunningBalance values are
// left as computed over the full window.
//
// A non-empty text query takes precedence: it matches order/voucher numbers
// case-insensitively and the store and voucher-type refinements are not
// applied on top of it. Without a query, a specific store keeps that store's
// orders and receipts plus every voucher (vouchers carry no reliable store),
// and a specific voucher type keeps only that type.
func Filter(txs []core.Transaction, p FilterParams) []core.Transaction {
	if q := strings.TrimSpace(p.Query); q != "" {
		return MatchQuery(txs, q)
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !isAll(p.Store) && !tx.VoucherType.IsManual() && tx.StoreCode != p.Store {
			continue
		}
		if !isAll(string(p.VoucherType)) && tx.VoucherType != p.VoucherType {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// MatchQuery keeps transactions whose ID contains q, ignoring case. An empty
// query returns the input unchanged.
func MatchQuery(txs []core.Transaction, q string) []core.Transaction {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return txs
	}
	out := make([]core.Transaction, 0)
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(tx.ID), q) {
			out = append(out, tx)
		}
	}
	return out
}
