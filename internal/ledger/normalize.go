package ledger

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
)

const (
	defaultCustomer  = "Walk-in customer"
	defaultSupplier  = "Unknown supplier"
	defaultRecipient = "Unknown"

	salesCategory    = "Sales transaction"
	purchaseCategory = "Purchase transaction"
	incomeCategory   = "Other income"
	expenseCategory  = "Other expense"
)

// Settings are the general settings that shape normalization.
type Settings struct {
	// UseCreatedDate buckets orders by creation date instead of completion.
	UseCreatedDate bool `json:"useCreatedDate"`
}

// Sources is one fetch of the four record streams plus the settings that
// were in force when they were fetched.
type Sources struct {
	Orders          []core.SalesOrder      `json:"orders"`
	Receipts        []core.PurchaseReceipt `json:"receipts"`
	IncomeVouchers  []core.Voucher         `json:"incomeVouchers"`
	ExpenseVouchers []core.Voucher         `json:"expenseVouchers"`
	Settings        Settings               `json:"settings"`
}

// Len is the total number of source records.
func (s Sources) Len() int {
	return len(s.Orders) + len(s.Receipts) + len(s.IncomeVouchers) + len(s.ExpenseVouchers)
}

// NormalizeOptions parameterize the normalizers. Store and Method take
// core.All (or "") to disable the filter.
type NormalizeOptions struct {
	Store          string
	Method         string
	UseCreatedDate bool
	// Now dates vouchers that carry no date at all.
	Now time.Time
}

func (o NormalizeOptions) storeAllowed(code string) bool {
	if isAll(o.Store) {
		return true
	}
	return code == o.Store
}

// NormalizeAll maps every source stream and concatenates the results in a
// fixed order: orders, receipts, income vouchers, expense vouchers. The
// order is the tie-break for transactions on the same day. UseCreatedDate
// is taken from src.Settings.
func NormalizeAll(src Sources, opts NormalizeOptions) []core.Transaction {
	opts.UseCreatedDate = src.Settings.UseCreatedDate

	out := make([]core.Transaction, 0, src.Len())
	out = append(out, NormalizeOrders(src.Orders, opts)...)
	out = append(out, NormalizeReceipts(src.Receipts, opts)...)
	out = append(out, NormalizeIncomeVouchers(src.IncomeVouchers, opts)...)
	out = append(out, NormalizeExpenseVouchers(src.ExpenseVouchers, opts)...)
	return out
}

// NormalizeOrders keeps paid orders of the selected store as income.
func NormalizeOrders(orders []core.SalesOrder, opts NormalizeOptions) []core.Transaction {
	out := make([]core.Transaction, 0, len(orders))
	for _, o := range orders {
		if !o.IsPaid() || !opts.storeAllowed(o.StoreCode) {
			continue
		}
		date, ok := orderDate(o, opts.UseCreatedDate)
		if !ok {
			logDropped(core.SalesOrderType, o.Reference(), "unparsable date")
			continue
		}
		out = append(out, core.Transaction{
			ID:          o.Reference(),
			Date:        date,
			Kind:        core.Income,
			Amount:      allocate(core.SalesOrderType, o.Reference(), o.PaymentMethod, o.Total, opts.Method),
			Source:      orDefault(o.CustomerName, defaultCustomer),
			Category:    salesCategoryFor(o.SalesChannel),
			VoucherType: core.SalesOrderType,
			StoreCode:   o.StoreCode,
		})
	}
	return out
}

// NormalizeReceipts keeps paid receipts of the selected store as expense.
// Receipts whose allocation under the method filter is zero are dropped.
func NormalizeReceipts(receipts []core.PurchaseReceipt, opts NormalizeOptions) []core.Transaction {
	out := make([]core.Transaction, 0, len(receipts))
	for _, r := range receipts {
		if !r.IsPaid || !opts.storeAllowed(r.StoreCode) {
			continue
		}
		date, ok := firstDate(r.PurchaseDate, r.CreatedAt)
		if !ok {
			logDropped(core.PurchaseReceiptType, r.Reference(), "unparsable date")
			continue
		}
		amount := allocate(core.PurchaseReceiptType, r.Reference(), r.PaymentMethod, r.PaymentAmount, opts.Method)
		if !amount.IsPositive() {
			continue
		}
		out = append(out, core.Transaction{
			ID:          r.Reference(),
			Date:        date,
			Kind:        core.Expense,
			Amount:      amount,
			Source:      supplierLabel(r.SupplierID),
			Category:    purchaseCategory,
			VoucherType: core.PurchaseReceiptType,
			StoreCode:   r.StoreCode,
		})
	}
	return out
}

// NormalizeIncomeVouchers maps manual income vouchers. Vouchers are never
// store-filtered.
func NormalizeIncomeVouchers(vouchers []core.Voucher, opts NormalizeOptions) []core.Transaction {
	return normalizeVouchers(vouchers, core.Income, core.IncomeVoucherType, incomeCategory, opts)
}

// NormalizeExpenseVouchers maps manual expense vouchers. Vouchers are never
// store-filtered.
func NormalizeExpenseVouchers(vouchers []core.Voucher, opts NormalizeOptions) []core.Transaction {
	return normalizeVouchers(vouchers, core.Expense, core.ExpenseVoucherType, expenseCategory, opts)
}

func normalizeVouchers(vouchers []core.Voucher, kind core.Kind, vt core.VoucherType, fallbackCategory string, opts NormalizeOptions) []core.Transaction {
	out := make([]core.Transaction, 0, len(vouchers))
	for _, v := range vouchers {
		date, ok := voucherDate(v.Date, opts.Now)
		if !ok {
			logDropped(vt, v.Reference(), "unparsable date")
			continue
		}
		ref := v.ID
		out = append(out, core.Transaction{
			ID:          v.Reference(),
			Date:        date,
			Kind:        kind,
			Amount:      allocate(vt, v.Reference(), v.Account, v.Amount, opts.Method),
			Source:      orDefault(v.Recipient, defaultRecipient),
			Category:    orDefault(v.Category, fallbackCategory),
			VoucherType: vt,
			InternalRef: &ref,
			StoreCode:   v.StoreCode,
		})
	}
	return out
}

// orderDate picks the bucketing timestamp: creation when the setting asks for
// it, otherwise completion (paid, then last update) before ordered/created.
func orderDate(o core.SalesOrder, useCreated bool) (core.Date, bool) {
	if useCreated {
		return firstDate(o.CreatedAt, o.OrderedAt)
	}
	return firstDate(o.PaidAt, o.UpdatedAt, o.OrderedAt, o.CreatedAt)
}

// firstDate parses the first non-empty candidate. A present but unparsable
// value does not fall through to the next one.
func firstDate(candidates ...string) (core.Date, bool) {
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		return core.ParseDate(c)
	}
	return core.Date{}, false
}

func voucherDate(raw string, now time.Time) (core.Date, bool) {
	if strings.TrimSpace(raw) == "" {
		if now.IsZero() {
			now = time.Now()
		}
		return core.DateOf(now), true
	}
	return core.ParseDate(raw)
}

func allocate(vt core.VoucherType, ref string, field core.PaymentField, total core.Amount, method string) decimal.Decimal {
	p := ParsePayment(field.String())
	if p.Kind == PaymentInvalid && !isAll(method) {
		slog.Warn("Malformed payment method, treating as no match",
			"record_source", vt,
			"record_id", ref,
			"payment_field", truncate(field.String(), maxLoggedField),
			"method_filter", method,
			"error", p.Err)
	}
	amount := p.Resolve(total.Decimal(), method)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

const maxLoggedField = 120

// truncate cuts s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func logDropped(vt core.VoucherType, ref, reason string) {
	slog.Debug("Dropping record from ledger", "record_source", vt, "record_id", ref, "reason", reason)
}

func orDefault(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}

func salesCategoryFor(channel string) string {
	if c := strings.TrimSpace(channel); c != "" {
		return fmt.Sprintf("%s (%s)", salesCategory, c)
	}
	return salesCategory
}

func supplierLabel(id int64) string {
	if id > 0 {
		return fmt.Sprintf("Supplier #%d", id)
	}
	return defaultSupplier
}
