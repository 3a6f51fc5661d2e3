package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"cashbook/internal/core"
)

var validate = validator.New()

// ErrInvalidQuery wraps filter values rejected by validation.
var ErrInvalidQuery = errors.New("invalid query")

// Query selects the window and display filters of a report.
type Query struct {
	Start       core.Date `json:"from"`
	End         core.Date `json:"to"`
	Store       string    `json:"store" validate:"required,max=64"`
	Method      string    `json:"method" validate:"required,max=64"`
	VoucherType string    `json:"type" validate:"required,oneof=all sales_order purchase_receipt income_voucher expense_voucher"`
	Text        string    `json:"q,omitempty" validate:"max=128"`
}

// Normalize fills unset filters with core.All and trims free text.
func (q Query) Normalize() Query {
	q.Store = strings.TrimSpace(q.Store)
	q.Method = strings.TrimSpace(q.Method)
	q.VoucherType = strings.ToLower(strings.TrimSpace(q.VoucherType))
	q.Text = strings.TrimSpace(q.Text)
	if q.Store == "" {
		q.Store = core.All
	}
	if q.Method == "" {
		q.Method = core.All
	}
	if q.VoucherType == "" {
		q.VoucherType = core.All
	}
	return q
}

// Validate checks the window and filter values of a normalized query.
func (q Query) Validate() error {
	if err := q.Start.Validate(); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := q.End.Validate(); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if q.End.Before(q.Start.Time) {
		return core.ErrInvalidWindow
	}
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				if fe.Field() == "VoucherType" {
					return core.ErrInvalidVoucherType
				}
				msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// Key identifies the query for caching.
func (q Query) Key() string {
	return strings.Join([]string{q.Start.String(), q.End.String(), q.Store, q.Method, q.VoucherType, strings.ToLower(q.Text)}, "|")
}

// Report is a windowed, filtered ledger view and its totals.
type Report struct {
	Query        Query              `json:"query"`
	Transactions []core.Transaction `json:"transactions"`
	Summary      core.Summary       `json:"summary"`
	GeneratedAt  time.Time          `json:"generatedAt"`
}

// Counts returns the number of visible transactions per voucher type.
func (r Report) Counts() map[core.VoucherType]int {
	counts := make(map[core.VoucherType]int, len(core.VoucherTypes()))
	for _, vt := range core.VoucherTypes() {
		counts[vt] = 0
	}
	for _, tx := range r.Transactions {
		counts[tx.VoucherType]++
	}
	return counts
}

// Generate builds a report as of now. q is expected to be normalized and
// valid.
func Generate(src Sources, q Query) Report {
	return GenerateAt(src, q, time.Now())
}

// GenerateAt builds a report, dating undated vouchers on now.
//
// The opening balance is taken from every record before the window,
// ignoring store and method filters. Running balances inside the window
// follow the store and method filters and start from that opening balance.
// Voucher type and text filters only hide rows.
func GenerateAt(src Sources, q Query, now time.Time) Report {
	all := NormalizeAll(src, NormalizeOptions{Store: core.All, Method: core.All, Now: now})
	opening := OpeningBalance(all, q.Start)

	view := NormalizeAll(src, NormalizeOptions{Store: q.Store, Method: q.Method, Now: now})
	windowed := Window(view, q.Start, q.End, opening)

	visible := Filter(windowed, FilterParams{
		Store:       q.Store,
		VoucherType: core.VoucherType(q.VoucherType),
		Query:       q.Text,
	})

	return Report{
		Query:        q,
		Transactions: visible,
		Summary:      Summarize(visible, opening),
		GeneratedAt:  now,
	}
}
