// Package http serves the ledger over a JSON API.
//
// This file turns query strings into ledger queries.
package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

// Query parameter names of the ledger endpoints.
const (
	ParamFrom   = "from"
	ParamTo     = "to"
	ParamStore  = "store"
	ParamMethod = "method"
	ParamType   = "type"
	ParamText   = "q"
)

// ParseLedgerQuery reads a ledger query from URL parameters. A missing "to"
// defaults to today and a missing "from" to the first day of the month of
// "to". Filters are left for ledger.Query.Normalize to default.
func ParseLedgerQuery(values url.Values, now time.Time) (ledger.Query, error) {
	end := core.DateOf(now)
	if v := strings.TrimSpace(values.Get(ParamTo)); v != "" {
		d, err := parseDateParam(ParamTo, v)
		if err != nil {
			return ledger.Query{}, err
		}
		end = d
	}

	start := core.NewDate(end.Year(), int(end.Month()), 1)
	if v := strings.TrimSpace(values.Get(ParamFrom)); v != "" {
		d, err := parseDateParam(ParamFrom, v)
		if err != nil {
			return ledger.Query{}, err
		}
		start = d
	}

	return ledger.Query{
		Start:       start,
		End:         end,
		Store:       sanitizeInput(values.Get(ParamStore)),
		Method:      sanitizeInput(values.Get(ParamMethod)),
		VoucherType: sanitizeInput(values.Get(ParamType)),
		Text:        sanitizeInput(values.Get(ParamText)),
	}.Normalize(), nil
}

func parseDateParam(name, v string) (core.Date, error) {
	d, ok := core.ParseDate(v)
	if !ok {
		return core.Date{}, fmt.Errorf("%s %q: %w", name, v, core.ErrInvalidDate)
	}
	return d, nil
}
