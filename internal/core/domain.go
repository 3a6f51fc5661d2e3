package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// All is the filter value that disables a store, payment-method or
// voucher-type filter.
const All = "all"

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	SalesOrderType      VoucherType = "sales_order"
	PurchaseReceiptType VoucherType = "purchase_receipt"
	IncomeVoucherType   VoucherType = "income_voucher"
	ExpenseVoucherType  VoucherType = "expense_voucher"
)

const dateLayout = "2006-01-02"

type (
	// Kind is the direction of a transaction ("thu"/"chi" in the cash book).
	Kind string

	// VoucherType discriminates the four record streams merged into the ledger.
	VoucherType string

	// Date is a calendar day. The wrapped time is always midnight UTC so that
	// ordering and equality ignore time of day.
	Date struct {
		time.Time
	}

	// Transaction is the single shape every source record is normalized into.
	Transaction struct {
		ID             string          `json:"id"`
		Date           Date            `json:"date"`
		Kind           Kind            `json:"kind"`
		Amount         decimal.Decimal `json:"amount"`
		Source         string          `json:"source"`
		Category       string          `json:"category"`
		VoucherType    VoucherType     `json:"voucherType"`
		InternalRef    *int64          `json:"internalRef,omitempty"`
		StoreCode      string          `json:"storeCode"`
		RunningBalance decimal.Decimal `json:"runningBalance"`
	}

	// Summary holds the display aggregates of a ledger view.
	Summary struct {
		OpeningBalance decimal.Decimal `json:"openingBalance"`
		TotalIncome    decimal.Decimal `json:"totalIncome"`
		TotalExpense   decimal.Decimal `json:"totalExpense"`
		ClosingBalance decimal.Decimal `json:"closingBalance"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidWindow      = errors.New("window end is before window start")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidVoucherType = errors.New("invalid voucher type")
)

var dateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05.000",
	"02/01/2006",
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate reads a date or timestamp in any of the layouts upstream systems
// emit. Timestamps keep the calendar day of their own offset.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return Date{}, false
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, ok := ParseDate(s)
	if !ok {
		panic("core: invalid date literal " + s)
	}
	return d
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, ok := ParseDate(s)
	if !ok {
		return ErrInvalidDate
	}
	*d = parsed
	return nil
}

// ParseKind accepts the English names and the cash-book terms "thu"/"chi".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "thu":
		return Income, nil
	case "expense", "chi":
		return Expense, nil
	}
	return "", ErrInvalidKind
}

// Signed applies the kind's direction to a non-negative amount.
func (k Kind) Signed(amount decimal.Decimal) decimal.Decimal {
	if k == Expense {
		return amount.Neg()
	}
	return amount
}

// VoucherTypes lists the four voucher types in ledger concatenation order.
func VoucherTypes() []VoucherType {
	return []VoucherType{SalesOrderType, PurchaseReceiptType, IncomeVoucherType, ExpenseVoucherType}
}

func (v VoucherType) IsValid() bool {
	switch v {
	case SalesOrderType, PurchaseReceiptType, IncomeVoucherType, ExpenseVoucherType:
		return true
	}
	return false
}

// IsManual reports whether the type is a hand-entered voucher rather than an
// order or receipt.
func (v VoucherType) IsManual() bool {
	return v == IncomeVoucherType || v == ExpenseVoucherType
}

// ParseVoucherType accepts "all" (returned as-is) or one of the four types.
func ParseVoucherType(s string) (VoucherType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == All {
		return VoucherType(All), nil
	}
	v := VoucherType(s)
	if !v.IsValid() {
		return "", ErrInvalidVoucherType
	}
	return v, nil
}

// Signed returns the transaction amount with the direction of its kind.
func (t Transaction) Signed() decimal.Decimal {
	return t.Kind.Signed(t.Amount)
}
