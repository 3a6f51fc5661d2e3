// Package core provides money parsing and handling utilities.
//
// Upstream systems send amounts as JSON numbers, numeric strings or, on bad
// records, garbage. Everything funnels through ParseAmount, which never fails:
// an amount it cannot read is zero.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Amount is a loosely typed monetary field as received from a source
	// system. Use Decimal to read it.
	Amount string

	// PaymentField is the raw payment-method field of a record: a bare method
	// code, a JSON object or a JSON array. Objects and arrays may arrive
	// either already decoded or JSON-encoded inside a string; both end up as
	// the same raw text.
	PaymentField string
)

// ParseAmount converts a decimal string to a decimal value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// appear, commas are treated as thousands separators. Invalid input returns
// zero instead of an error.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34
//	ParseAmount("12,34")     -> 12.34
//	ParseAmount("80,000.50") -> 80000.5
//	ParseAmount("abc")       -> 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NewAmount builds an Amount from a decimal, mostly for fixtures and writers.
func NewAmount(d decimal.Decimal) Amount {
	return Amount(d.String())
}

// Decimal returns the parsed amount, zero when unreadable.
func (a Amount) Decimal() decimal.Decimal {
	return ParseAmount(string(a))
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// UnmarshalJSON accepts numbers, strings and null. Any other JSON value is
// kept verbatim and will read as zero.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		*a = Amount(b)
	}
	return nil
}

func (p PaymentField) String() string {
	return string(p)
}

func (p PaymentField) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p *PaymentField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*p = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PaymentField(s)
	default:
		*p = PaymentField(b)
	}
	return nil
}
