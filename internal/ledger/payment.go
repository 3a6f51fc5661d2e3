package ledger

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
)

// PaymentKind tags the shape of a parsed payment-method field.
type PaymentKind int

const (
	PaymentNone PaymentKind = iota
	PaymentBare
	PaymentSingle
	PaymentMulti
	PaymentInvalid
)

func (k PaymentKind) String() string {
	switch k {
	case PaymentNone:
		return "none"
	case PaymentBare:
		return "bare"
	case PaymentSingle:
		return "single"
	case PaymentMulti:
		return "multi"
	case PaymentInvalid:
		return "invalid"
	}
	return "unknown"
}

// Allocation is the share of a payment made through one method.
type Allocation struct {
	Method string
	Amount decimal.Decimal
}

// Payment is the typed form of a record's payment-method field.
//
// Bare carries Method; Single carries exactly one Allocation; Multi carries
// the allocations in field order; Invalid carries the parse error.
type Payment struct {
	Kind        PaymentKind
	Method      string
	Allocations []Allocation
	Err         error
}

type allocationJSON struct {
	Method string      `json:"method"`
	Amount core.Amount `json:"amount"`
}

// ParsePayment reads a payment-method field. It never fails; malformed JSON
// yields a PaymentInvalid value.
func ParsePayment(field string) Payment {
	s := strings.TrimSpace(field)
	if s == "" || s == "null" {
		return Payment{Kind: PaymentNone}
	}

	switch s[0] {
	case '{':
		var one allocationJSON
		if err := json.Unmarshal([]byte(s), &one); err != nil {
			return Payment{Kind: PaymentInvalid, Err: err}
		}
		return Payment{Kind: PaymentSingle, Allocations: []Allocation{toAllocation(one)}}
	case '[':
		var many []allocationJSON
		if err := json.Unmarshal([]byte(s), &many); err != nil {
			return Payment{Kind: PaymentInvalid, Err: err}
		}
		allocs := make([]Allocation, 0, len(many))
		for _, a := range many {
			allocs = append(allocs, toAllocation(a))
		}
		return Payment{Kind: PaymentMulti, Allocations: allocs}
	}

	return Payment{Kind: PaymentBare, Method: s}
}

func toAllocation(a allocationJSON) Allocation {
	return Allocation{Method: a.Method, Amount: a.Amount.Decimal()}
}

// Methods lists the payment methods named by the field, in field order.
func (p Payment) Methods() []string {
	switch p.Kind {
	case PaymentBare:
		return []string{p.Method}
	case PaymentSingle, PaymentMulti:
		out := make([]string, 0, len(p.Allocations))
		for _, a := range p.Allocations {
			out = append(out, a.Method)
		}
		return out
	}
	return nil
}

// Resolve returns the part of total attributable to method.
//
// With no method filter the full total is returned whatever the field holds.
// Under a filter, a bare code yields the total on a match, a JSON object its
// own amount on a match, and a JSON list the amount of its first matching
// entry. Everything else, including an empty or malformed field, yields zero.
func (p Payment) Resolve(total decimal.Decimal, method string) decimal.Decimal {
	if isAll(method) {
		return total
	}
	switch p.Kind {
	case PaymentBare:
		if p.Method == method {
			return total
		}
	case PaymentSingle, PaymentMulti:
		for _, a := range p.Allocations {
			if a.Method == method {
				return a.Amount
			}
		}
	}
	return decimal.Zero
}

// ResolveAmount parses field and resolves it in one step.
func ResolveAmount(field string, total decimal.Decimal, method string) decimal.Decimal {
	return ParsePayment(field).Resolve(total, method)
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, core.All)
}
